package engine

import (
	"regexp"
	"strings"
)

// Search scans per chunk: a match never spans a chunk boundary, and each
// hit's range is the chunk base plus the local match offsets. Invalid
// regex patterns are demoted to literal search.

// Search finds the first occurrence of pattern, probing whether it is a
// valid regex.
func (e *Engine) Search(pattern string, caseSensitive bool) (Match, bool) {
	return e.SearchSingle(pattern, 0, caseSensitive, isRegex(pattern))
}

// SearchFrom finds the first occurrence of pattern at or after start,
// probing whether it is a valid regex.
func (e *Engine) SearchFrom(pattern string, start int, caseSensitive bool) (Match, bool) {
	return e.SearchSingle(pattern, start, caseSensitive, isRegex(pattern))
}

// SearchSingle returns the first match at or after start, or the sentinel
// match and false.
func (e *Engine) SearchSingle(pattern string, start int, caseSensitive, asRegex bool) (Match, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	noMatch := Match{Range: InvalidRange}
	if e.tree.Len() == 0 {
		_ = e.fail("search", ErrEmptyDocument)
		return noMatch, false
	}

	re := e.compilePattern(pattern, caseSensitive, &asRegex)
	base := 0
	for _, c := range e.pool.Chunks() {
		clen := c.Len()
		if start >= base+clen {
			base += clen
			continue
		}
		local := maxInt(0, start-base)
		text := c.String()

		if asRegex {
			if loc := re.FindStringIndex(text[local:]); loc != nil {
				return Match{
					Range: Range{Start: base + local + loc[0], End: base + local + loc[1]},
					Value: text[local+loc[0] : local+loc[1]],
				}, true
			}
		} else if at := literalIndex(text, pattern, local, caseSensitive); at >= 0 {
			return Match{
				Range: Range{Start: base + at, End: base + at + len(pattern)},
				Value: text[at : at+len(pattern)],
			}, true
		}
		base += clen
	}
	return noMatch, false
}

// SearchMulti returns every match at or after start, in document order.
func (e *Engine) SearchMulti(pattern string, start int, caseSensitive, asRegex bool) []Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.tree.Len() == 0 {
		_ = e.fail("search", ErrEmptyDocument)
		return nil
	}

	re := e.compilePattern(pattern, caseSensitive, &asRegex)
	var results []Match
	base := 0
	for _, c := range e.pool.Chunks() {
		clen := c.Len()
		if start >= base+clen {
			base += clen
			continue
		}
		local := maxInt(0, start-base)
		text := c.String()

		if asRegex {
			for _, loc := range re.FindAllStringIndex(text[local:], -1) {
				results = append(results, Match{
					Range: Range{Start: base + local + loc[0], End: base + local + loc[1]},
					Value: text[local+loc[0] : local+loc[1]],
				})
			}
		} else if len(pattern) > 0 {
			at := local
			for {
				at = literalIndex(text, pattern, at, caseSensitive)
				if at < 0 {
					break
				}
				results = append(results, Match{
					Range: Range{Start: base + at, End: base + at + len(pattern)},
					Value: text[at : at+len(pattern)],
				})
				at += len(pattern)
			}
		}
		base += clen
	}
	return results
}

// compilePattern compiles the regex, demoting to literal search on
// failure. asRegex is cleared when compilation fails.
func (e *Engine) compilePattern(pattern string, caseSensitive bool, asRegex *bool) *regexp.Regexp {
	if !*asRegex {
		return nil
	}
	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		_ = e.fail("search", ErrInvalidPattern)
		*asRegex = false
		return nil
	}
	return re
}

// literalIndex finds pattern in text at or after from.
func literalIndex(text, pattern string, from int, caseSensitive bool) int {
	if from > len(text) {
		return -1
	}
	var at int
	if caseSensitive {
		at = strings.Index(text[from:], pattern)
	} else {
		at = strings.Index(strings.ToLower(text[from:]), strings.ToLower(pattern))
	}
	if at < 0 {
		return -1
	}
	return from + at
}

// isRegex probes whether a pattern compiles as a regular expression.
func isRegex(pattern string) bool {
	_, err := regexp.Compile(pattern)
	return err == nil
}
