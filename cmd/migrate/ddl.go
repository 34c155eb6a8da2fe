package main

import (
	"strings"
)

// splitDDLStatements drops comment lines and splits on semicolons.
func splitDDLStatements(content string) []string {
	var cleaned []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		cleaned = append(cleaned, line)
	}

	var result []string
	for _, stmt := range strings.Split(strings.Join(cleaned, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}

// createdObject returns the lower-cased table or index name a CREATE
// statement defines, or "" for any other statement.
func createdObject(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) < 3 || !strings.EqualFold(fields[0], "CREATE") {
		return ""
	}
	i := 1
	for i < len(fields) && (strings.EqualFold(fields[i], "UNIQUE") || strings.EqualFold(fields[i], "NULL_FILTERED")) {
		i++
	}
	if i+1 >= len(fields) {
		return ""
	}
	kind := strings.ToUpper(fields[i])
	if kind != "TABLE" && kind != "INDEX" {
		return ""
	}
	name := fields[i+1]
	if j := strings.IndexAny(name, "(\n"); j >= 0 {
		name = name[:j]
	}
	return strings.ToLower(strings.Trim(name, "`"))
}

// pendingStatements keeps the statements whose object does not exist yet.
// Statements that create nothing are always kept.
func pendingStatements(statements []string, existing map[string]bool) []string {
	var pending []string
	for _, stmt := range statements {
		if name := createdObject(stmt); name != "" && existing[name] {
			continue
		}
		pending = append(pending, stmt)
	}
	return pending
}
