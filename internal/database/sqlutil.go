// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

package database

import (
	"io"
	"strings"
)

// closeQuietly closes a resource and explicitly ignores any error.
// Use this for cleanup in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// quoteLiteral renders s as a SQL string literal. DuckDB table functions
// and COPY targets do not accept bound parameters for file paths.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteIdent renders s as a quoted SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// literalList renders paths as a DuckDB list literal.
func literalList(paths []string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = quoteLiteral(p)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// readCSV renders a read_csv call that keeps every column as VARCHAR so
// conversion failures can be reported per row instead of failing the scan.
func readCSV(source string, options ...string) string {
	args := append([]string{source, "header = true", "all_varchar = true"}, options...)
	return "read_csv(" + strings.Join(args, ", ") + ")"
}
