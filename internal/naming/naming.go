// Package naming computes collision-free sequential entity names.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NextAutoName returns "{base} N" where N is the smallest positive integer
// not already taken by a name of the form "{base} k" in existing. The base
// match is case-insensitive; names that do not match the pattern are ignored.
// Gaps left by deletions or renames are filled first.
func NextAutoName(existing []string, base string) string {
	pattern := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(base) + `\s+(\d+)$`)

	taken := make(map[int]bool, len(existing))
	for _, name := range existing {
		m := pattern.FindStringSubmatch(strings.TrimSpace(name))
		if m == nil {
			continue
		}
		k, err := strconv.Atoi(m[1])
		if err != nil || k < 1 {
			continue
		}
		taken[k] = true
	}

	n := 1
	for taken[n] {
		n++
	}
	return fmt.Sprintf("%s %d", base, n)
}

// Suggestions returns count alternative names of the form "{base} (2)" through
// "{base} (count+1)". The list is fixed and not checked against existing names;
// it is meant for user-facing conflict remediation, not for the authoritative
// naming path.
func Suggestions(base string, count int) []string {
	if count < 1 {
		return nil
	}
	out := make([]string, 0, count)
	for i := 2; i <= count+1; i++ {
		out = append(out, fmt.Sprintf("%s (%d)", base, i))
	}
	return out
}
