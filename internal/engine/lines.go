package engine

// Line queries walk the per-chunk newline tables, accumulating chunk base
// offsets so markers form one global sequence: lines spanning a chunk
// boundary are stitched without a separate global index. A line's span is
// [previous marker + 1, marker) — the end is the next line's start minus
// one, exclusive.

// LineCount returns the number of newline characters in the document.
func (e *Engine) LineCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := 0
	for _, c := range e.pool.Chunks() {
		count += c.NewlineCount()
	}
	return count
}

// LineOfOffset returns the line index containing the document offset. An
// offset past the last newline reports the trailing line.
func (e *Engine) LineOfOffset(offset int) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if offset < 0 || offset > e.tree.Len() {
		return -1, e.fail("line-of-offset", ErrOutOfRange)
	}

	line := 0
	base := 0
	for _, c := range e.pool.Chunks() {
		for _, m := range c.LineStarts() {
			if base+m > offset {
				return line, nil
			}
			line++
		}
		base += c.Len()
	}
	return line, nil
}

// LineRange returns the [start, end) span of line i, or the sentinel
// range on failure.
func (e *Engine) LineRange(i int) (Range, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lineRangeLocked(i)
}

// LineContent returns the text of line i without its newline.
func (e *Engine) LineContent(i int) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, err := e.lineRangeLocked(i)
	if err != nil {
		return "", err
	}
	return e.textRangeLocked(r.Start, r.End), nil
}

// LineLen returns the length of line i without its newline.
func (e *Engine) LineLen(i int) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, err := e.lineRangeLocked(i)
	if err != nil {
		return 0, err
	}
	return r.Len(), nil
}

func (e *Engine) lineRangeLocked(i int) (Range, error) {
	if e.tree.Len() == 0 {
		return InvalidRange, e.fail("line-range", ErrEmptyDocument)
	}
	if i < 0 {
		return InvalidRange, e.fail("line-range", ErrOutOfRange)
	}

	line := 0
	base := 0
	prev := -1
	for _, c := range e.pool.Chunks() {
		for _, m := range c.LineStarts() {
			marker := base + m
			if line == i {
				return Range{Start: prev + 1, End: marker}, nil
			}
			prev = marker
			line++
		}
		base += c.Len()
	}
	return InvalidRange, e.fail("line-range", ErrOutOfRange)
}
