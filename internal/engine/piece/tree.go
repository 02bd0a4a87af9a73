package piece

// Tree is the piece index. Create one with New; the zero value is not an
// empty tree, since its root link is 0 rather than None.
type Tree struct {
	nodes []node
	free  []uint32
	root  uint32
	count int
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{root: None}
}

// Len returns the total document length covered by the tree.
func (t *Tree) Len() int {
	return t.subtreeOf(t.root)
}

// Count returns the number of pieces.
func (t *Tree) Count() int { return t.count }

// IsEmpty returns true if the tree holds no pieces.
func (t *Tree) IsEmpty() bool { return t.root == None }

// At returns the piece stored at ref.
func (t *Tree) At(ref uint32) Piece { return t.nodes[ref].Piece }

// Locate returns the piece containing the document offset and the count of
// characters between the piece's logical start and the offset. Offsets at
// a piece boundary resolve to the following piece with remainder 0.
func (t *Tree) Locate(offset int) (uint32, int, bool) {
	if offset < 0 || offset >= t.Len() {
		return None, 0, false
	}
	cur := t.root
	for {
		l := t.subtreeOf(t.nodes[cur].left)
		if offset < l {
			cur = t.nodes[cur].left
			continue
		}
		offset -= l
		if offset < t.nodes[cur].Length {
			return cur, offset, true
		}
		offset -= t.nodes[cur].Length
		cur = t.nodes[cur].right
	}
}

// OffsetOf returns the absolute document offset of the piece's first
// character, by summing everything to its left.
func (t *Tree) OffsetOf(ref uint32) int {
	offset := t.subtreeOf(t.nodes[ref].left)
	for cur := ref; t.nodes[cur].parent != None; cur = t.nodes[cur].parent {
		p := t.nodes[cur].parent
		if t.nodes[p].right == cur {
			offset += t.subtreeOf(t.nodes[p].left) + t.nodes[p].Length
		}
	}
	return offset
}

// SetLength updates a piece's length and the sums above it.
func (t *Tree) SetLength(ref uint32, length int) {
	t.nodes[ref].Length = length
	t.bubble(ref)
}

// SetStart updates a piece's buffer-local start.
func (t *Tree) SetStart(ref uint32, start int) {
	t.nodes[ref].Start = start
}

// ShiftStarts adjusts the Start of every piece on the given buffer whose
// Start is at or past from, excluding skip. Chunk mutations shift the
// contents under every co-resident piece, and their starts must follow.
func (t *Tree) ShiftStarts(bufferID uint32, from, delta int, skip uint32) {
	for ref := t.Min(); ref != None; ref = t.Next(ref) {
		if ref == skip {
			continue
		}
		n := &t.nodes[ref]
		if n.BufferID == bufferID && n.Start >= from {
			n.Start += delta
		}
	}
}

// Relocate retargets every piece on fromBuffer whose Start is at or past
// from onto toBuffer, rebasing starts so from becomes zero. Used when a
// chunk's tail is moved into a fresh chunk to keep pool order aligned with
// document order.
func (t *Tree) Relocate(fromBuffer uint32, from int, toBuffer uint32) {
	for ref := t.Min(); ref != None; ref = t.Next(ref) {
		n := &t.nodes[ref]
		if n.BufferID == fromBuffer && n.Start >= from {
			n.BufferID = toBuffer
			n.Start -= from
		}
	}
}

// SplitAt splits the piece at local position k (0 < k < length) into two
// adjacent pieces sharing the buffer, and returns the right piece's ref.
func (t *Tree) SplitAt(ref uint32, k int) uint32 {
	p := t.nodes[ref].Piece
	right := Piece{BufferID: p.BufferID, Start: p.Start + k, Length: p.Length - k}
	t.SetLength(ref, k)
	return t.InsertAfter(ref, right)
}

// InsertFirst inserts a piece at the head of the in-order sequence.
func (t *Tree) InsertFirst(p Piece) uint32 {
	if t.root == None {
		z := t.alloc(p)
		t.root = z
		t.nodes[z].color = Black
		t.count++
		return z
	}
	return t.InsertBefore(t.Min(), p)
}

// InsertLast inserts a piece at the tail of the in-order sequence.
func (t *Tree) InsertLast(p Piece) uint32 {
	if t.root == None {
		return t.InsertFirst(p)
	}
	return t.InsertAfter(t.Max(), p)
}

// InsertAfter inserts a piece as the in-order successor of ref.
func (t *Tree) InsertAfter(ref uint32, p Piece) uint32 {
	z := t.alloc(p)
	if t.nodes[ref].right == None {
		t.nodes[ref].right = z
		t.nodes[z].parent = ref
	} else {
		s := t.minUnder(t.nodes[ref].right)
		t.nodes[s].left = z
		t.nodes[z].parent = s
	}
	t.count++
	t.bubble(t.nodes[z].parent)
	t.insertFixup(z)
	return z
}

// InsertBefore inserts a piece as the in-order predecessor of ref.
func (t *Tree) InsertBefore(ref uint32, p Piece) uint32 {
	z := t.alloc(p)
	if t.nodes[ref].left == None {
		t.nodes[ref].left = z
		t.nodes[z].parent = ref
	} else {
		s := t.maxUnder(t.nodes[ref].left)
		t.nodes[s].right = z
		t.nodes[z].parent = s
	}
	t.count++
	t.bubble(t.nodes[z].parent)
	t.insertFixup(z)
	return z
}

// Delete removes the piece at ref and rebalances.
func (t *Tree) Delete(ref uint32) {
	z := ref
	y := z
	yColor := t.nodes[y].color
	var x, xParent uint32

	switch {
	case t.nodes[z].left == None:
		x = t.nodes[z].right
		xParent = t.nodes[z].parent
		t.transplant(z, x)
	case t.nodes[z].right == None:
		x = t.nodes[z].left
		xParent = t.nodes[z].parent
		t.transplant(z, x)
	default:
		y = t.minUnder(t.nodes[z].right)
		yColor = t.nodes[y].color
		x = t.nodes[y].right
		if t.nodes[y].parent == z {
			xParent = y
		} else {
			xParent = t.nodes[y].parent
			t.transplant(y, x)
			t.nodes[y].right = t.nodes[z].right
			t.nodes[t.nodes[y].right].parent = y
		}
		t.transplant(z, y)
		t.nodes[y].left = t.nodes[z].left
		t.nodes[t.nodes[y].left].parent = y
		t.nodes[y].color = t.nodes[z].color
	}

	if xParent != None {
		t.bubble(xParent)
	}
	if yColor == Black {
		t.deleteFixup(x, xParent)
	}
	t.release(z)
	t.count--
}

// Min returns the leftmost piece, or None.
func (t *Tree) Min() uint32 {
	if t.root == None {
		return None
	}
	return t.minUnder(t.root)
}

// Max returns the rightmost piece, or None.
func (t *Tree) Max() uint32 {
	if t.root == None {
		return None
	}
	return t.maxUnder(t.root)
}

// MinUnder returns the leftmost descendant of ref.
func (t *Tree) MinUnder(ref uint32) uint32 { return t.minUnder(ref) }

// MaxUnder returns the rightmost descendant of ref.
func (t *Tree) MaxUnder(ref uint32) uint32 { return t.maxUnder(ref) }

// Next returns the in-order successor of ref, or None.
func (t *Tree) Next(ref uint32) uint32 {
	if t.nodes[ref].right != None {
		return t.minUnder(t.nodes[ref].right)
	}
	p := t.nodes[ref].parent
	for p != None && t.nodes[p].right == ref {
		ref = p
		p = t.nodes[p].parent
	}
	return p
}

// Prev returns the in-order predecessor of ref, or None.
func (t *Tree) Prev(ref uint32) uint32 {
	if t.nodes[ref].left != None {
		return t.maxUnder(t.nodes[ref].left)
	}
	p := t.nodes[ref].parent
	for p != None && t.nodes[p].left == ref {
		ref = p
		p = t.nodes[p].parent
	}
	return p
}

// Clear drops every piece and recycles the arena.
func (t *Tree) Clear() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.root = None
	t.count = 0
}

// arena management

func (t *Tree) alloc(p Piece) uint32 {
	if n := len(t.free); n > 0 {
		ref := t.free[n-1]
		t.free = t.free[:n-1]
		t.nodes[ref] = node{Piece: p, left: None, right: None, parent: None, subtree: p.Length, color: Red, used: true}
		return ref
	}
	t.nodes = append(t.nodes, node{Piece: p, left: None, right: None, parent: None, subtree: p.Length, color: Red, used: true})
	return uint32(len(t.nodes) - 1)
}

func (t *Tree) release(ref uint32) {
	t.nodes[ref] = node{left: None, right: None, parent: None}
	t.free = append(t.free, ref)
}

func (t *Tree) subtreeOf(ref uint32) int {
	if ref == None {
		return 0
	}
	return t.nodes[ref].subtree
}

func (t *Tree) update(ref uint32) {
	n := &t.nodes[ref]
	n.subtree = n.Length + t.subtreeOf(n.left) + t.subtreeOf(n.right)
}

func (t *Tree) bubble(ref uint32) {
	for ; ref != None; ref = t.nodes[ref].parent {
		t.update(ref)
	}
}

func (t *Tree) minUnder(ref uint32) uint32 {
	for t.nodes[ref].left != None {
		ref = t.nodes[ref].left
	}
	return ref
}

func (t *Tree) maxUnder(ref uint32) uint32 {
	for t.nodes[ref].right != None {
		ref = t.nodes[ref].right
	}
	return ref
}

func (t *Tree) colorOf(ref uint32) Color {
	if ref == None {
		return Black
	}
	return t.nodes[ref].color
}

// rotations preserve in-order sequence; subtree sums are repaired locally.

func (t *Tree) rotateLeft(x uint32) {
	y := t.nodes[x].right
	t.nodes[x].right = t.nodes[y].left
	if t.nodes[y].left != None {
		t.nodes[t.nodes[y].left].parent = x
	}
	t.nodes[y].parent = t.nodes[x].parent
	switch {
	case t.nodes[x].parent == None:
		t.root = y
	case t.nodes[t.nodes[x].parent].left == x:
		t.nodes[t.nodes[x].parent].left = y
	default:
		t.nodes[t.nodes[x].parent].right = y
	}
	t.nodes[y].left = x
	t.nodes[x].parent = y
	t.update(x)
	t.update(y)
}

func (t *Tree) rotateRight(x uint32) {
	y := t.nodes[x].left
	t.nodes[x].left = t.nodes[y].right
	if t.nodes[y].right != None {
		t.nodes[t.nodes[y].right].parent = x
	}
	t.nodes[y].parent = t.nodes[x].parent
	switch {
	case t.nodes[x].parent == None:
		t.root = y
	case t.nodes[t.nodes[x].parent].right == x:
		t.nodes[t.nodes[x].parent].right = y
	default:
		t.nodes[t.nodes[x].parent].left = y
	}
	t.nodes[y].right = x
	t.nodes[x].parent = y
	t.update(x)
	t.update(y)
}

func (t *Tree) transplant(u, v uint32) {
	p := t.nodes[u].parent
	switch {
	case p == None:
		t.root = v
	case t.nodes[p].left == u:
		t.nodes[p].left = v
	default:
		t.nodes[p].right = v
	}
	if v != None {
		t.nodes[v].parent = p
	}
}

func (t *Tree) insertFixup(z uint32) {
	for t.colorOf(t.nodes[z].parent) == Red {
		parent := t.nodes[z].parent
		grand := t.nodes[parent].parent
		if parent == t.nodes[grand].left {
			uncle := t.nodes[grand].right
			if t.colorOf(uncle) == Red {
				t.nodes[parent].color = Black
				t.nodes[uncle].color = Black
				t.nodes[grand].color = Red
				z = grand
			} else {
				if z == t.nodes[parent].right {
					z = parent
					t.rotateLeft(z)
					parent = t.nodes[z].parent
					grand = t.nodes[parent].parent
				}
				t.nodes[parent].color = Black
				t.nodes[grand].color = Red
				t.rotateRight(grand)
			}
		} else {
			uncle := t.nodes[grand].left
			if t.colorOf(uncle) == Red {
				t.nodes[parent].color = Black
				t.nodes[uncle].color = Black
				t.nodes[grand].color = Red
				z = grand
			} else {
				if z == t.nodes[parent].left {
					z = parent
					t.rotateRight(z)
					parent = t.nodes[z].parent
					grand = t.nodes[parent].parent
				}
				t.nodes[parent].color = Black
				t.nodes[grand].color = Red
				t.rotateLeft(grand)
			}
		}
	}
	t.nodes[t.root].color = Black
}

func (t *Tree) deleteFixup(x, xParent uint32) {
	for x != t.root && t.colorOf(x) == Black {
		if xParent == None {
			break
		}
		if x == t.nodes[xParent].left {
			s := t.nodes[xParent].right
			if t.colorOf(s) == Red {
				t.nodes[s].color = Black
				t.nodes[xParent].color = Red
				t.rotateLeft(xParent)
				s = t.nodes[xParent].right
			}
			if t.colorOf(t.nodes[s].left) == Black && t.colorOf(t.nodes[s].right) == Black {
				t.nodes[s].color = Red
				x = xParent
				xParent = t.nodes[x].parent
			} else {
				if t.colorOf(t.nodes[s].right) == Black {
					if t.nodes[s].left != None {
						t.nodes[t.nodes[s].left].color = Black
					}
					t.nodes[s].color = Red
					t.rotateRight(s)
					s = t.nodes[xParent].right
				}
				t.nodes[s].color = t.nodes[xParent].color
				t.nodes[xParent].color = Black
				if t.nodes[s].right != None {
					t.nodes[t.nodes[s].right].color = Black
				}
				t.rotateLeft(xParent)
				x = t.root
				xParent = None
			}
		} else {
			s := t.nodes[xParent].left
			if t.colorOf(s) == Red {
				t.nodes[s].color = Black
				t.nodes[xParent].color = Red
				t.rotateRight(xParent)
				s = t.nodes[xParent].left
			}
			if t.colorOf(t.nodes[s].left) == Black && t.colorOf(t.nodes[s].right) == Black {
				t.nodes[s].color = Red
				x = xParent
				xParent = t.nodes[x].parent
			} else {
				if t.colorOf(t.nodes[s].left) == Black {
					if t.nodes[s].right != None {
						t.nodes[t.nodes[s].right].color = Black
					}
					t.nodes[s].color = Red
					t.rotateLeft(s)
					s = t.nodes[xParent].left
				}
				t.nodes[s].color = t.nodes[xParent].color
				t.nodes[xParent].color = Black
				if t.nodes[s].left != None {
					t.nodes[t.nodes[s].left].color = Black
				}
				t.rotateRight(xParent)
				x = t.root
				xParent = None
			}
		}
	}
	if x != None {
		t.nodes[x].color = Black
	}
}
