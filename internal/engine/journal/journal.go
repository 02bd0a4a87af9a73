package journal

import "sync"

// MaxHistorySize bounds the history unless unlimited mode is enabled.
const MaxHistorySize = 200

// MaxMergeInterval is the coalescing window: edits stamped within one
// second (nanosecond timestamps) of the previous capture may merge.
const MaxMergeInterval = int64(1_000_000_000)

// Replayer applies journal entries back to the document. Implementations
// must not re-capture the replayed edits.
type Replayer interface {
	ReplayInsert(offset int, text string)
	ReplayDelete(start, end int)
}

// Listener receives journal notifications.
type Listener interface {
	OnUndo(caret int)
	OnRedo(caret int)
	OnChange(start, end int, timestamp int64)
	OnStackChange(size int)
}

// Journal is the undo/redo history for one engine.
type Journal struct {
	mu sync.Mutex

	history []*Action
	pos     int

	group     int
	batch     bool
	unlimited bool
	lastStamp int64

	listener Listener
}

// New creates an empty journal.
func New() *Journal {
	return &Journal{lastStamp: -1}
}

// SetListener installs the notification sink.
func (j *Journal) SetListener(l Listener) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.listener = l
}

// CaptureInsert records an insertion of text at [start, end). A rapid
// insertion that starts exactly where the previous recorded insertion
// ended extends that action instead of appending a new one.
func (j *Journal) CaptureInsert(start, end int, text string, timestamp int64) {
	j.mu.Lock()

	merged := false
	if j.pos > 0 {
		last := j.history[j.pos-1]
		if last.Kind == Insert && j.withinMergeWindow(timestamp) && start == last.End {
			j.truncateTail()
			last.End = end
			last.Text += text
			merged = true
		}
	}
	if !merged {
		j.appendAction(&Action{Kind: Insert, Start: start, End: end, Text: text, Group: j.group})
		if !j.batch {
			j.group++
		}
	}
	j.lastStamp = timestamp
	listener := j.listener
	j.mu.Unlock()

	if listener != nil {
		listener.OnChange(start, end, timestamp)
	}
}

// CaptureDelete records a deletion of [start, end). The caller captures
// text before mutating the document. A rapid deletion that ends exactly
// where the previous recorded deletion started (a backspace run) extends
// that action leftward.
func (j *Journal) CaptureDelete(start, end int, text string, timestamp int64) {
	j.mu.Lock()

	merged := false
	if j.pos > 0 {
		last := j.history[j.pos-1]
		if last.Kind == Delete && j.withinMergeWindow(timestamp) && end == last.Start {
			j.truncateTail()
			last.Start = start
			last.Text = text + last.Text
			merged = true
		}
	}
	if !merged {
		j.appendAction(&Action{Kind: Delete, Start: start, End: end, Text: text, Group: j.group})
		if !j.batch {
			j.group++
		}
	}
	j.lastStamp = timestamp
	listener := j.listener
	j.mu.Unlock()

	if listener != nil {
		listener.OnChange(start, end, timestamp)
	}
}

// Undo rolls back one whole group and returns the caret position of the
// last action undone, or -1 when there is nothing to undo.
func (j *Journal) Undo(r Replayer) int {
	j.mu.Lock()
	if j.pos == 0 {
		j.mu.Unlock()
		return -1
	}

	group := j.history[j.pos-1].Group
	var last *Action
	for j.pos > 0 && j.history[j.pos-1].Group == group {
		a := j.history[j.pos-1]
		switch a.Kind {
		case Insert:
			r.ReplayDelete(a.Start, a.End)
		case Delete:
			r.ReplayInsert(a.Start, a.Text)
		}
		j.pos--
		last = a
	}
	caret := last.undoCaret()
	listener := j.listener
	j.mu.Unlock()

	if listener != nil {
		listener.OnUndo(caret)
	}
	return caret
}

// Redo re-applies one whole group and returns the caret position of the
// last action redone, or -1 when there is nothing to redo.
func (j *Journal) Redo(r Replayer) int {
	j.mu.Lock()
	if j.pos >= len(j.history) {
		j.mu.Unlock()
		return -1
	}

	group := j.history[j.pos].Group
	var last *Action
	for j.pos < len(j.history) && j.history[j.pos].Group == group {
		a := j.history[j.pos]
		switch a.Kind {
		case Insert:
			r.ReplayInsert(a.Start, a.Text)
		case Delete:
			r.ReplayDelete(a.Start, a.End)
		}
		j.pos++
		last = a
	}
	caret := last.redoCaret()
	listener := j.listener
	j.mu.Unlock()

	if listener != nil {
		listener.OnRedo(caret)
	}
	return caret
}

// CanUndo reports whether any applied actions remain.
func (j *Journal) CanUndo() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pos > 0
}

// CanRedo reports whether any rolled-back actions remain.
func (j *Journal) CanRedo() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pos < len(j.history)
}

// Size returns the number of recorded actions.
func (j *Journal) Size() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.history)
}

// BeginBatch freezes the group counter so subsequent captures share one
// group. Nested calls are ignored.
func (j *Journal) BeginBatch() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.batch = true
}

// EndBatch closes the bracket and advances the group counter.
func (j *Journal) EndBatch() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.batch {
		return
	}
	j.batch = false
	j.group++
}

// IsBatch reports whether a batch bracket is open.
func (j *Journal) IsBatch() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.batch
}

// SetUnlimited toggles the history bound.
func (j *Journal) SetUnlimited(unlimited bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.unlimited = unlimited
}

// Unlimited reports whether the history bound is disabled.
func (j *Journal) Unlimited() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.unlimited
}

// Clear drops the whole history.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.history = nil
	j.pos = 0
	j.group = 0
	j.batch = false
	j.lastStamp = -1
}

// appendAction truncates the redo tail, enforces the bound, and appends.
// Callers hold the lock.
func (j *Journal) appendAction(a *Action) {
	j.truncateTail()
	if !j.unlimited && len(j.history) >= MaxHistorySize {
		j.history = j.history[1:]
		j.pos--
	}
	j.history = append(j.history, a)
	j.pos++

	if j.listener != nil {
		j.listener.OnStackChange(len(j.history))
	}
}

// truncateTail drops rolled-back actions; a new edit invalidates redo.
// Callers hold the lock.
func (j *Journal) truncateTail() {
	if len(j.history) > j.pos {
		j.history = j.history[:j.pos]
	}
}

func (j *Journal) withinMergeWindow(timestamp int64) bool {
	return j.lastStamp >= 0 && timestamp-j.lastStamp < MaxMergeInterval
}
