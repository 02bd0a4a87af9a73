package engine

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/piecetable/internal/engine/chunk"
	"github.com/dshills/piecetable/internal/engine/journal"
	"github.com/dshills/piecetable/internal/engine/piece"
)

// Engine is the text engine facade. It owns the chunk pool, the piece
// index and the journal, and serializes document reads and edits on one
// guard. The journal-only methods (CanUndo, CanRedo, the batch bracket,
// the history-bound toggles) use the journal's lock, not this guard.
type Engine struct {
	mu sync.RWMutex

	id      string
	pool    *chunk.Pool
	tree    *piece.Tree
	journal *journal.Journal

	listener Listener
	notify   atomic.Bool

	// Configuration
	chunkCapacity    int
	singleBuffer     bool
	throwOnError     bool
	unlimitedHistory bool
	initContent      string
}

// New creates an engine and loads the initial content.
func New(opts ...Option) *Engine {
	e := &Engine{
		id:            uuid.New().String(),
		chunkCapacity: chunk.DefaultCapacity,
		tree:          piece.New(),
		journal:       journal.New(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.singleBuffer {
		e.pool = chunk.NewSingleBufferPool()
	} else {
		e.pool = chunk.NewPool(e.chunkCapacity)
	}
	e.chunkCapacity = e.pool.Capacity()
	if e.unlimitedHistory {
		e.journal.SetUnlimited(true)
	}

	e.loadContent(e.initContent)
	e.initContent = ""
	return e
}

// NewFromReader creates an engine with content read from r.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithContent(string(data)))
	return New(opts...), nil
}

// ID returns the engine's instance identifier.
func (e *Engine) ID() string { return e.id }

// ChunkCapacity returns the per-chunk capacity.
func (e *Engine) ChunkCapacity() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool.Capacity()
}

// IsSingleBuffer reports whether single-buffer mode is active.
func (e *Engine) IsSingleBuffer() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool.SingleBuffer()
}

// SetListener installs the text modification listener.
func (e *Engine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// SetJournalListener installs the undo/redo notification sink.
func (e *Engine) SetJournalListener(l journal.Listener) {
	e.journal.SetListener(l)
}

// ============================================================================
// Loading
// ============================================================================

// Load replaces all content and resets the journal.
func (e *Engine) Load(content string) error {
	if err := e.guardReentry("load"); err != nil {
		return err
	}
	e.loadContent(content)
	return nil
}

// LoadReader replaces all content from an io.Reader.
func (e *Engine) LoadReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return e.fail("load", err)
	}
	return e.Load(string(data))
}

func (e *Engine) loadContent(content string) {
	e.mu.Lock()
	e.pool.Clear()
	e.tree.Clear()
	e.journal.Clear()
	e.appendLocked(content, false)
	e.mu.Unlock()

	e.withNotify(func(l Listener) { l.OnContentLoaded(content) })
}

// Clear removes all content and history.
func (e *Engine) Clear() error {
	if err := e.guardReentry("clear"); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool.Clear()
	e.tree.Clear()
	e.journal.Clear()
	return nil
}

// ============================================================================
// Read operations
// ============================================================================

// Len returns the total document length.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Len()
}

// IsEmpty returns true when the document holds no content.
func (e *Engine) IsEmpty() bool {
	return e.Len() == 0
}

// Text returns the full document content.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.textRangeLocked(0, e.tree.Len())
}

// TextRange returns the content of [start, end).
func (e *Engine) TextRange(start, end int) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if start < 0 || end < start || end > e.tree.Len() {
		return "", e.fail("text-range", ErrOutOfRange)
	}
	return e.textRangeLocked(start, end), nil
}

// textRangeLocked concatenates chunk slices clipped to [start, end).
func (e *Engine) textRangeLocked(start, end int) string {
	var b strings.Builder
	b.Grow(end - start)
	base := 0
	for _, c := range e.pool.Chunks() {
		if end <= base {
			break
		}
		clen := c.Len()
		if start < base+clen {
			lo := maxInt(0, start-base)
			hi := minInt(clen, end-base)
			s, _ := c.Sub(lo, hi)
			b.WriteString(s)
		}
		base += clen
	}
	return b.String()
}

// ============================================================================
// Write operations
// ============================================================================

// Append adds text at the end of the document.
func (e *Engine) Append(text string) error {
	return e.apply(Edit{Range: Range{Start: -1, End: -1}, Text: text}, true)
}

// Insert places text at the given offset.
func (e *Engine) Insert(offset int, text string) error {
	return e.apply(Edit{Range: Range{Start: offset, End: offset}, Text: text}, false)
}

// Delete removes the content of [start, end).
func (e *Engine) Delete(start, end int) error {
	return e.apply(Edit{Range: Range{Start: start, End: end}}, false)
}

// Replace substitutes the content of [start, end) with text: a delete
// followed by an insert at start.
func (e *Engine) Replace(start, end int, text string) error {
	return e.apply(Edit{Range: Range{Start: start, End: end}, Text: text}, false)
}

// ApplyEdit applies a single edit: an empty range inserts, empty text
// deletes, otherwise replaces. Silent edits bypass the journal.
func (e *Engine) ApplyEdit(edit Edit) error {
	return e.apply(edit, false)
}

// apply validates, routes and executes one edit, then fires listener
// notifications outside the guard.
func (e *Engine) apply(edit Edit, appendEnd bool) error {
	if err := e.guardReentry("edit"); err != nil {
		return err
	}

	e.mu.Lock()
	length := e.tree.Len()
	if appendEnd {
		edit.Range = Range{Start: length, End: length}
	}
	if edit.Range.Start < 0 || edit.Range.End < edit.Range.Start || edit.Range.End > length {
		e.mu.Unlock()
		return e.fail("edit", ErrOutOfRange)
	}
	capture := !edit.Silent

	var events []event
	if edit.Range.Len() > 0 {
		e.deleteLocked(edit.Range.Start, edit.Range.End, capture)
		events = append(events, event{kind: evDelete, start: edit.Range.Start, end: edit.Range.End})
	}
	if len(edit.Text) > 0 || edit.Range.Len() == 0 {
		e.insertLocked(edit.Range.Start, edit.Text, capture)
		events = append(events, event{kind: evInsert, start: edit.Range.Start, text: edit.Text})
	}
	e.mu.Unlock()

	e.fireEvents(events)
	return nil
}

// appendLocked fills the tail chunk to capacity, then spawns chunks for
// the remainder, one piece per new chunk, in document order.
func (e *Engine) appendLocked(text string, capture bool) {
	offset := e.tree.Len()
	rest := text

	if !e.tree.IsEmpty() {
		last := e.tree.Max()
		p := e.tree.At(last)
		if c, err := e.pool.Chunk(p.BufferID); err == nil && c.Free() > 0 && len(rest) > 0 {
			n := minInt(c.Free(), len(rest))
			_ = c.Append(rest[:n])
			e.tree.SetLength(last, p.Length+n)
			rest = rest[n:]
		}
	}

	for len(rest) > 0 {
		c := e.pool.Append()
		n := minInt(e.pool.Capacity(), len(rest))
		_ = c.Append(rest[:n])
		e.tree.InsertLast(piece.Piece{BufferID: c.ID(), Start: 0, Length: n})
		rest = rest[n:]
	}

	if capture && len(text) > 0 {
		e.journal.CaptureInsert(offset, offset+len(text), text, time.Now().UnixNano())
	}
}

// insertLocked places text at offset. The located piece is split when the
// offset falls inside it; text beyond the chunk's free space spills into
// fresh chunks spliced in document order (spawned pieces are linked at the
// located in-order position, never blindly as a right child).
func (e *Engine) insertLocked(offset int, text string, capture bool) {
	if len(text) == 0 {
		return
	}
	if offset == e.tree.Len() {
		e.appendLocked(text, capture)
		return
	}

	ref, r, _ := e.tree.Locate(offset)
	p := e.tree.At(ref)
	c, _ := e.pool.Chunk(p.BufferID)
	local := p.Start + r

	if len(text) <= c.Free() {
		// Room in the chunk: split if mid-piece, insert in place, grow.
		if r > 0 {
			e.tree.SplitAt(ref, r)
		}
		_ = c.Insert(local, text)
		e.tree.ShiftStarts(c.ID(), local, len(text), ref)
		e.tree.SetLength(ref, e.tree.At(ref).Length+len(text))
	} else {
		e.insertOverflowLocked(ref, r, c, local, text)
	}

	if capture {
		e.journal.CaptureInsert(offset, offset+len(text), text, time.Now().UnixNano())
	}
}

// insertOverflowLocked handles inserts that do not fit the target chunk.
// The chunk is split at the insertion point — its tail moves to a fresh
// chunk — so spill chunks can be spliced between the halves while pool
// order keeps matching document order.
func (e *Engine) insertOverflowLocked(ref uint32, r int, c *chunk.Chunk, local int, text string) {
	if r > 0 {
		e.tree.SplitAt(ref, r)
	}

	if local > 0 && local < c.Len() {
		tail, _ := c.Sub(local, c.Len())
		tc, _ := e.pool.InsertAfter(c.ID())
		_ = tc.Append(tail)
		_ = c.Delete(local, len(tail))
		e.tree.Relocate(c.ID(), local, tc.ID())
	}

	// Fill the chunk's now-free tail at the insertion point. With local > 0
	// the tail move above always leaves room.
	anchor := piece.None
	rest := text
	if local > 0 {
		head := rest[:minInt(c.Free(), len(rest))]
		_ = c.Append(head)
		if r > 0 {
			e.tree.SetLength(ref, e.tree.At(ref).Length+len(head))
			anchor = ref
		} else {
			prev := e.tree.Prev(ref)
			anchor = e.tree.InsertAfter(prev, piece.Piece{BufferID: c.ID(), Start: local, Length: len(head)})
		}
		rest = rest[len(head):]
	}

	// Spawn chunks for the remainder, each with its own piece, in order.
	anchorChunk := c.ID()
	front := local == 0
	for len(rest) > 0 {
		var nc *chunk.Chunk
		if front {
			nc, _ = e.pool.InsertBefore(c.ID())
			front = false
		} else {
			nc, _ = e.pool.InsertAfter(anchorChunk)
		}
		n := minInt(e.pool.Capacity(), len(rest))
		_ = nc.Append(rest[:n])
		np := piece.Piece{BufferID: nc.ID(), Start: 0, Length: n}
		if anchor == piece.None {
			anchor = e.tree.InsertBefore(ref, np)
		} else {
			anchor = e.tree.InsertAfter(anchor, np)
		}
		anchorChunk = nc.ID()
		rest = rest[n:]
	}
}

// deleteLocked removes [start, end), capturing the removed text before
// mutation so undo can restore it. The full-document fast path uses the
// closed-open convention.
func (e *Engine) deleteLocked(start, end int, capture bool) {
	if capture && end > start {
		text := e.textRangeLocked(start, end)
		e.journal.CaptureDelete(start, end, text, time.Now().UnixNano())
	}

	if start == 0 && end == e.tree.Len() {
		// Full delete resets storage; the journal survives so the
		// deletion can be undone.
		e.pool.Clear()
		e.tree.Clear()
		return
	}

	remaining := end - start
	for remaining > 0 {
		ref, r, ok := e.tree.Locate(start)
		if !ok {
			break
		}
		p := e.tree.At(ref)
		c, _ := e.pool.Chunk(p.BufferID)
		local := p.Start + r
		n := minInt(remaining, p.Length-r)

		if r == 0 && n == p.Length {
			e.tree.Delete(ref)
			ref = piece.None
		} else {
			e.tree.SetLength(ref, p.Length-n)
		}
		_ = c.Delete(local, n)
		e.tree.ShiftStarts(c.ID(), local+n, -n, ref)
		if c.IsEmpty() {
			_ = e.pool.Remove(c.ID())
		}
		remaining -= n
	}
}

// ============================================================================
// Undo / redo
// ============================================================================

// Undo rolls back the most recent group and returns the caret position,
// or -1 when there is nothing to undo.
func (e *Engine) Undo() int {
	if err := e.guardReentry("undo"); err != nil {
		return -1
	}
	e.mu.Lock()
	rp := &replayer{engine: e}
	caret := e.journal.Undo(rp)
	e.mu.Unlock()

	e.fireEvents(rp.events)
	return caret
}

// Redo re-applies the most recently undone group and returns the caret
// position, or -1 when there is nothing to redo.
func (e *Engine) Redo() int {
	if err := e.guardReentry("redo"); err != nil {
		return -1
	}
	e.mu.Lock()
	rp := &replayer{engine: e}
	caret := e.journal.Redo(rp)
	e.mu.Unlock()

	e.fireEvents(rp.events)
	return caret
}

// CanUndo reports whether undo is available.
func (e *Engine) CanUndo() bool { return e.journal.CanUndo() }

// CanRedo reports whether redo is available.
func (e *Engine) CanRedo() bool { return e.journal.CanRedo() }

// BeginBatchEdit freezes undo grouping so edits until EndBatchEdit undo
// as one unit.
func (e *Engine) BeginBatchEdit() { e.journal.BeginBatch() }

// EndBatchEdit closes the batch bracket.
func (e *Engine) EndBatchEdit() { e.journal.EndBatch() }

// IsBatchEdit reports whether a batch bracket is open.
func (e *Engine) IsBatchEdit() bool { return e.journal.IsBatch() }

// SetUnlimitedHistory toggles the undo history bound.
func (e *Engine) SetUnlimitedHistory(unlimited bool) { e.journal.SetUnlimited(unlimited) }

// HasUnlimitedHistory reports whether the history bound is disabled.
func (e *Engine) HasUnlimitedHistory() bool { return e.journal.Unlimited() }

// replayer applies journal entries without re-capturing, collecting
// listener events to fire after the guard is released.
type replayer struct {
	engine *Engine
	events []event
}

func (r *replayer) ReplayInsert(offset int, text string) {
	r.engine.insertLocked(offset, text, false)
	r.events = append(r.events, event{kind: evInsert, start: offset, text: text})
}

func (r *replayer) ReplayDelete(start, end int) {
	r.engine.deleteLocked(start, end, false)
	r.events = append(r.events, event{kind: evDelete, start: start, end: end})
}

// ============================================================================
// Listener plumbing
// ============================================================================

type eventKind uint8

const (
	evInsert eventKind = iota
	evDelete
)

type event struct {
	kind  eventKind
	start int
	end   int
	text  string
}

// guardReentry rejects mutation re-entered from a listener callback.
func (e *Engine) guardReentry(op string) error {
	if e.notify.Load() {
		return e.fail(op, ErrInternal)
	}
	return nil
}

func (e *Engine) fireEvents(events []event) {
	if len(events) == 0 {
		return
	}
	e.withNotify(func(l Listener) {
		for _, ev := range events {
			switch ev.kind {
			case evInsert:
				l.OnTextInserted(ev.start, ev.text)
			case evDelete:
				l.OnTextDeleted(ev.start, ev.end)
			}
		}
	})
}

func (e *Engine) withNotify(fn func(Listener)) {
	e.mu.RLock()
	l := e.listener
	e.mu.RUnlock()
	if l == nil {
		return
	}
	e.notify.Store(true)
	defer e.notify.Store(false)
	fn(l)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
