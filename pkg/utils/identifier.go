package utils

import "strings"

// QuoteIdentifier adds double quotes around a PostgreSQL identifier, handling
// qualified identifiers by quoting each part.
//
// Examples:
//   - "fixes" -> `"fixes"`
//   - "_timescaledb_internal._hyper_1_3_chunk" -> `"_timescaledb_internal"."_hyper_1_3_chunk"`
//   - `"fixes"` -> `"fixes"` (already quoted, not double-quoted)
//   - "" -> ""
//
// This function is used throughout the codebase for consistent identifier
// formatting in generated statements.
func QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.Split(name, ".")
	for i, part := range parts {
		// Skip if this part is already quoted
		if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
			continue
		}
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// QuoteQualifiedName formats a schema-qualified name with proper quoting.
// If schema is empty, only the name is quoted.
//
// Examples:
//   - ("_timescaledb_internal", "_hyper_1_3_chunk") -> `"_timescaledb_internal"."_hyper_1_3_chunk"`
//   - ("", "fixes") -> `"fixes"`
func QuoteQualifiedName(schema, name string) string {
	if schema != "" {
		return QuoteIdentifier(schema) + "." + QuoteIdentifier(name)
	}
	return QuoteIdentifier(name)
}

// QuoteLiteral wraps a value in single quotes, escaping embedded quotes the
// PostgreSQL way (doubling them).
//
// Examples:
//   - "fixes" -> "'fixes'"
//   - "o'brien" -> "'o''brien'"
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// QuoteLiterals quotes each value and joins them with commas, suitable for
// interpolation into an IN (...) list.
//
// Examples:
//   - ["a", "b"] -> "'a', 'b'"
//   - [] -> ""
func QuoteLiterals(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = QuoteLiteral(v)
	}
	return strings.Join(quoted, ", ")
}
