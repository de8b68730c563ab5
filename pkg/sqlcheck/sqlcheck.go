// Package sqlcheck validates generated SQL before execution against an
// analytics database. Only single-statement read queries are allowed.
package sqlcheck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxQueryLength is the maximum allowed query length in characters.
	MaxQueryLength = 5000
	// MaxResultLimit is the highest LIMIT a query may request.
	MaxResultLimit = 10000
	// DefaultLimit is injected when a query carries no LIMIT clause.
	DefaultLimit = 1000
)

// Result captures the outcome of validating a query.
type Result struct {
	Valid     bool
	SafeQuery string
	Errors    []string
	Warnings  []string
}

// forbidden lists statement keywords that indicate writes or other
// operations a report query must never perform.
var forbidden = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {}, "CREATE": {},
	"ALTER": {}, "TRUNCATE": {}, "GRANT": {}, "REVOKE": {}, "EXECUTE": {},
	"CALL": {}, "DECLARE": {}, "SET": {}, "RESET": {}, "COPY": {},
	"MERGE": {}, "VACUUM": {}, "CLUSTER": {}, "REINDEX": {}, "ANALYZE": {},
	"EXPLAIN": {}, "LOAD": {}, "BACKUP": {}, "RESTORE": {},
}

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`--`),
	regexp.MustCompile(`(?s)/\*.*?\*/`),
	regexp.MustCompile(`(?i)xp_cmdshell`),
	regexp.MustCompile(`(?i)\bsp_\w+`),
	regexp.MustCompile(`(?i)\bexec\s*\(`),
	regexp.MustCompile(`(?i)\beval\s*\(`),
	regexp.MustCompile(`\$\$`),
}

var (
	limitRegex = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
	wordRegex  = regexp.MustCompile(`[A-Za-z_]+`)
)

// Validate checks a query against the read-only policy and returns a
// Result. When the query is valid, SafeQuery carries the query with a
// LIMIT clause guaranteed present.
func Validate(query string) Result {
	result := Result{}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		result.Errors = append(result.Errors, "empty query")
		return result
	}
	if len(query) > MaxQueryLength {
		result.Errors = append(result.Errors,
			fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(query) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("dangerous pattern detected: %s", pattern.String()))
		}
	}

	if idx := strings.Index(trimmed, ";"); idx >= 0 && idx != len(trimmed)-1 {
		result.Errors = append(result.Errors, "multiple statements are not allowed")
	}

	// Stripping string literals keeps values like 'delete me' from
	// tripping the keyword scan.
	stripped := stripLiterals(trimmed)

	upper := strings.ToUpper(stripped)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		result.Errors = append(result.Errors, "only SELECT queries are allowed")
	}

	for _, word := range wordRegex.FindAllString(stripped, -1) {
		if _, ok := forbidden[strings.ToUpper(word)]; ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("forbidden keyword: %s", strings.ToUpper(word)))
		}
	}

	if match := limitRegex.FindStringSubmatch(stripped); match != nil {
		if limit, err := strconv.Atoi(match[1]); err == nil && limit > MaxResultLimit {
			result.Errors = append(result.Errors,
				fmt.Sprintf("LIMIT %d exceeds maximum of %d", limit, MaxResultLimit))
		}
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no LIMIT clause, LIMIT %d will be applied", DefaultLimit))
	}

	if subqueries := strings.Count(upper, "(") + strings.Count(upper, "SELECT"); subqueries > 10 {
		result.Warnings = append(result.Warnings, "query nests many subqueries")
	}

	if len(result.Errors) > 0 {
		return result
	}

	result.Valid = true
	result.SafeQuery = EnsureLimit(trimmed)
	return result
}

// EnsureLimit returns the query with a LIMIT clause, appending
// DefaultLimit when none is present.
func EnsureLimit(query string) string {
	if limitRegex.MatchString(query) {
		return query
	}

	clean := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	return fmt.Sprintf("%s LIMIT %d", clean, DefaultLimit)
}

// stripLiterals replaces single-quoted string contents with spaces so
// pattern and keyword checks only see query structure.
func stripLiterals(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			// '' inside a literal is an escaped quote.
			if inString && i+1 < len(query) && query[i+1] == '\'' {
				b.WriteString("  ")
				i++
				continue
			}
			inString = !inString
			b.WriteByte(c)
			continue
		}
		if inString {
			b.WriteByte(' ')
		} else {
			b.WriteByte(c)
		}
	}

	return b.String()
}
