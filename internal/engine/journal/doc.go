// Package journal records edits as a flat history of tagged action records
// with a cursor separating applied from rolled-back entries. Actions are
// grouped: a batch bracket freezes the group counter so everything inside
// undoes and redoes as one unit, and rapid abutting edits of the same kind
// coalesce into a single action.
//
// The journal holds document offsets, never storage coordinates, so its
// entries survive tree rebalancing and chunk turnover. Replay goes through
// a Replayer so the engine can apply undo and redo without re-capturing.
package journal
