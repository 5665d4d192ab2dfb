package postgres

import (
	"regexp"
	"strconv"
)

// Command tags are the last line of psql's stdout for DML, e.g. "DELETE 42" or
// "INSERT 0 3". The setting statements that precede the DML produce "SET"
// lines with no count, so the last matching tag wins.
var commandTag = regexp.MustCompile(`(?m)^(?:INSERT|UPDATE|DELETE|MERGE|COPY|SELECT)\s+(?:\d+\s+)?(\d+)\s*$`)

// ParseCommandTag extracts the affected-row count from psql command output.
// It returns 0 when no tag with a numeric suffix is present; the absence of a
// parseable count is not an error at this boundary.
//
// Examples:
//   - "DELETE 42" -> 42
//   - "SET\nUPDATE 7" -> 7
//   - "INSERT 0 3" -> 3
//   - "CREATE TABLE" -> 0
func ParseCommandTag(output string) int64 {
	matches := commandTag.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return 0
	}

	n, err := strconv.ParseInt(matches[len(matches)-1][1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
