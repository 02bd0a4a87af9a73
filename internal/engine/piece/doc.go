// Package piece implements the piece index: a red-black tree whose in-order
// traversal yields the document. Each piece references a contiguous run of
// one chunk by (buffer ID, buffer-local start, length).
//
// Nodes live in an arena addressed by uint32 index with a None sentinel and
// a free-list, so the cyclic parent pointers cost nothing to reclaim and
// lookups stay cache-friendly. Every node carries the total length of its
// subtree; locating a document offset walks these sums, which keeps piece
// starts buffer-local and independent of unrelated edits.
package piece
