// Package engine is the text engine facade: a piece-table document built
// from a chunked buffer pool, a red-black piece index and an undo/redo
// journal. It provides localized edits at arbitrary offsets in time
// independent of document size, line-oriented queries over per-chunk
// newline tables, literal and regex search, and grouped undo/redo.
//
// Document reads and edits serialize on one engine-wide guard; CanUndo,
// CanRedo, the batch bracket and the history-bound toggles do not take it
// and rely on the journal's own lock instead. Listener
// callbacks run synchronously after the mutation, outside the guard, before
// the operation returns; callbacks must not mutate the engine.
package engine
