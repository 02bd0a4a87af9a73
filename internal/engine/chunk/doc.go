// Package chunk provides the storage layer for the text engine: fixed
// capacity mutable byte buffers that track their own newline positions, and
// an ordered pool that owns them.
//
// A Chunk is the unit of character storage. Its newline table holds the
// offsets of every '\n' within the chunk, kept sorted by construction, so
// line queries never rescan chunk contents.
//
// A Pool keeps chunks in document order while handing out stable IDs, so
// piece records stay valid when chunks are created or released mid-document.
package chunk
