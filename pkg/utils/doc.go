// Package utils provides common utility functions used throughout the chunkops codebase.
//
// This package contains shared utilities that are used by multiple packages to avoid
// code duplication and ensure consistent behavior across the application.
//
// # Identifier Utilities (identifier.go)
//
// The identifier utilities provide consistent handling of PostgreSQL identifiers and
// string literals, including proper double-quote quoting for names and single-quote
// escaping for values interpolated into generated statements.
package utils
