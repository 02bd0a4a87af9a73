package piece

import (
	"math/rand"
	"testing"
)

// checkInvariants verifies the red-black properties, parent links and
// subtree length sums for every reachable node.
func checkInvariants(t *testing.T, tr *Tree) {
	t.Helper()
	if tr.root == None {
		return
	}
	if tr.nodes[tr.root].color != Black {
		t.Fatal("root is not black")
	}
	if tr.nodes[tr.root].parent != None {
		t.Fatal("root has a parent")
	}
	var walk func(ref uint32) int
	walk = func(ref uint32) int {
		if ref == None {
			return 1
		}
		n := tr.nodes[ref]
		if !n.used {
			t.Fatalf("reachable node %d is on the free list", ref)
		}
		if n.Length <= 0 {
			t.Fatalf("node %d has non-positive length %d", ref, n.Length)
		}
		if n.color == Red {
			if tr.colorOf(n.left) == Red || tr.colorOf(n.right) == Red {
				t.Fatalf("red node %d has a red child", ref)
			}
		}
		if n.left != None && tr.nodes[n.left].parent != ref {
			t.Fatalf("node %d left child has wrong parent", ref)
		}
		if n.right != None && tr.nodes[n.right].parent != ref {
			t.Fatalf("node %d right child has wrong parent", ref)
		}
		lh := walk(n.left)
		rh := walk(n.right)
		if lh != rh {
			t.Fatalf("black height mismatch at node %d: %d vs %d", ref, lh, rh)
		}
		if want := n.Length + tr.subtreeOf(n.left) + tr.subtreeOf(n.right); n.subtree != want {
			t.Fatalf("node %d subtree sum = %d, want %d", ref, n.subtree, want)
		}
		if n.color == Black {
			return lh + 1
		}
		return lh
	}
	walk(tr.root)
}

// collect returns the pieces in document order.
func collect(tr *Tree) []Piece {
	var out []Piece
	for ref := tr.Min(); ref != None; ref = tr.Next(ref) {
		out = append(out, tr.At(ref))
	}
	return out
}

func TestEmptyTree(t *testing.T) {
	tr := New()
	if tr.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tr.Len())
	}
	if !tr.IsEmpty() {
		t.Error("IsEmpty() = false, want true")
	}
	if _, _, ok := tr.Locate(0); ok {
		t.Error("Locate(0) on empty tree succeeded")
	}
}

func TestInsertLastSequence(t *testing.T) {
	tr := New()
	for i := 0; i < 100; i++ {
		tr.InsertLast(Piece{BufferID: uint32(i), Start: 0, Length: 10})
		checkInvariants(t, tr)
	}
	if tr.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", tr.Len())
	}
	if tr.Count() != 100 {
		t.Errorf("Count() = %d, want 100", tr.Count())
	}

	pieces := collect(tr)
	for i, p := range pieces {
		if p.BufferID != uint32(i) {
			t.Fatalf("piece %d has buffer %d, want %d", i, p.BufferID, i)
		}
	}
}

func TestLocate(t *testing.T) {
	tr := New()
	// Three pieces of lengths 4, 2, 4 — offsets 0..9.
	tr.InsertLast(Piece{BufferID: 0, Start: 0, Length: 4})
	tr.InsertLast(Piece{BufferID: 1, Start: 0, Length: 2})
	tr.InsertLast(Piece{BufferID: 2, Start: 0, Length: 4})

	tests := []struct {
		offset    int
		buffer    uint32
		remainder int
	}{
		{0, 0, 0},
		{3, 0, 3},
		{4, 1, 0},
		{5, 1, 1},
		{6, 2, 0},
		{9, 2, 3},
	}
	for _, tt := range tests {
		ref, r, ok := tr.Locate(tt.offset)
		if !ok {
			t.Fatalf("Locate(%d) failed", tt.offset)
		}
		if p := tr.At(ref); p.BufferID != tt.buffer || r != tt.remainder {
			t.Errorf("Locate(%d) = buffer %d remainder %d, want buffer %d remainder %d",
				tt.offset, p.BufferID, r, tt.buffer, tt.remainder)
		}
	}
	if _, _, ok := tr.Locate(10); ok {
		t.Error("Locate(Len()) succeeded, want failure")
	}
}

func TestOffsetOf(t *testing.T) {
	tr := New()
	var refs []uint32
	lengths := []int{5, 1, 7, 3, 9, 2}
	for i, n := range lengths {
		refs = append(refs, tr.InsertLast(Piece{BufferID: uint32(i), Length: n}))
	}
	offset := 0
	for i, ref := range refs {
		if got := tr.OffsetOf(ref); got != offset {
			t.Errorf("OffsetOf(piece %d) = %d, want %d", i, got, offset)
		}
		offset += lengths[i]
	}
}

func TestSplitAt(t *testing.T) {
	tr := New()
	ref := tr.InsertLast(Piece{BufferID: 7, Start: 2, Length: 10})
	right := tr.SplitAt(ref, 4)
	checkInvariants(t, tr)

	left := tr.At(ref)
	if left.Start != 2 || left.Length != 4 {
		t.Errorf("left = {start %d, len %d}, want {2, 4}", left.Start, left.Length)
	}
	rp := tr.At(right)
	if rp.BufferID != 7 || rp.Start != 6 || rp.Length != 6 {
		t.Errorf("right = {buffer %d, start %d, len %d}, want {7, 6, 6}", rp.BufferID, rp.Start, rp.Length)
	}
	if tr.Next(ref) != right {
		t.Error("right piece is not the in-order successor of left")
	}
	if tr.Len() != 10 {
		t.Errorf("Len() = %d, want 10", tr.Len())
	}
}

func TestInsertBeforeAfter(t *testing.T) {
	tr := New()
	mid := tr.InsertFirst(Piece{BufferID: 1, Length: 5})
	tr.InsertBefore(mid, Piece{BufferID: 0, Length: 3})
	tr.InsertAfter(mid, Piece{BufferID: 2, Length: 4})
	checkInvariants(t, tr)

	pieces := collect(tr)
	want := []uint32{0, 1, 2}
	for i, p := range pieces {
		if p.BufferID != want[i] {
			t.Fatalf("piece %d buffer = %d, want %d", i, p.BufferID, want[i])
		}
	}
}

func TestDelete(t *testing.T) {
	tr := New()
	var refs []uint32
	for i := 0; i < 20; i++ {
		refs = append(refs, tr.InsertLast(Piece{BufferID: uint32(i), Length: i + 1}))
	}
	// Delete in a mixed order: middles, ends, root candidates.
	order := []int{10, 0, 19, 5, 15, 1, 18, 7, 3, 12}
	total := tr.Len()
	for _, i := range order {
		length := tr.At(refs[i]).Length
		tr.Delete(refs[i])
		total -= length
		checkInvariants(t, tr)
		if tr.Len() != total {
			t.Fatalf("Len() = %d after deleting piece %d, want %d", tr.Len(), i, total)
		}
	}
	if tr.Count() != 10 {
		t.Errorf("Count() = %d, want 10", tr.Count())
	}
}

func TestSetLengthAndShiftStarts(t *testing.T) {
	tr := New()
	a := tr.InsertLast(Piece{BufferID: 0, Start: 0, Length: 4})
	b := tr.InsertLast(Piece{BufferID: 0, Start: 4, Length: 4})
	c := tr.InsertLast(Piece{BufferID: 1, Start: 0, Length: 4})

	tr.SetLength(a, 6)
	if tr.Len() != 14 {
		t.Errorf("Len() = %d after SetLength, want 14", tr.Len())
	}
	checkInvariants(t, tr)

	tr.ShiftStarts(0, 4, 2, a)
	if got := tr.At(b).Start; got != 6 {
		t.Errorf("piece b start = %d, want 6", got)
	}
	if got := tr.At(c).Start; got != 0 {
		t.Errorf("piece c start = %d, want 0 (different buffer)", got)
	}
}

func TestRelocate(t *testing.T) {
	tr := New()
	a := tr.InsertLast(Piece{BufferID: 0, Start: 0, Length: 3})
	b := tr.InsertLast(Piece{BufferID: 0, Start: 3, Length: 2})
	c := tr.InsertLast(Piece{BufferID: 0, Start: 5, Length: 4})

	tr.Relocate(0, 3, 9)
	if p := tr.At(a); p.BufferID != 0 || p.Start != 0 {
		t.Errorf("piece a = %+v, want untouched", p)
	}
	if p := tr.At(b); p.BufferID != 9 || p.Start != 0 {
		t.Errorf("piece b = %+v, want buffer 9 start 0", p)
	}
	if p := tr.At(c); p.BufferID != 9 || p.Start != 2 {
		t.Errorf("piece c = %+v, want buffer 9 start 2", p)
	}
}

// TestRandomOps drives the tree with a deterministic random script and
// checks the invariants and a flat reference model after every step.
func TestRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tr := New()
	var model []int // lengths in document order

	refAt := func(i int) uint32 {
		ref := tr.Min()
		for ; i > 0; i-- {
			ref = tr.Next(ref)
		}
		return ref
	}

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(4); {
		case op == 0 || tr.Count() == 0: // insert
			length := 1 + rng.Intn(50)
			p := Piece{BufferID: uint32(step), Length: length}
			if tr.Count() == 0 {
				tr.InsertFirst(p)
				model = append([]int{length}, model...)
			} else {
				i := rng.Intn(tr.Count())
				if rng.Intn(2) == 0 {
					tr.InsertAfter(refAt(i), p)
					model = append(model[:i+1], append([]int{length}, model[i+1:]...)...)
				} else {
					tr.InsertBefore(refAt(i), p)
					model = append(model[:i], append([]int{length}, model[i:]...)...)
				}
			}
		case op == 1: // delete
			i := rng.Intn(tr.Count())
			tr.Delete(refAt(i))
			model = append(model[:i], model[i+1:]...)
		case op == 2: // split
			i := rng.Intn(tr.Count())
			if model[i] > 1 {
				k := 1 + rng.Intn(model[i]-1)
				tr.SplitAt(refAt(i), k)
				rest := model[i] - k
				model[i] = k
				model = append(model[:i+1], append([]int{rest}, model[i+1:]...)...)
			}
		default: // resize
			i := rng.Intn(tr.Count())
			length := 1 + rng.Intn(50)
			tr.SetLength(refAt(i), length)
			model[i] = length
		}

		checkInvariants(t, tr)
		total := 0
		for _, n := range model {
			total += n
		}
		if tr.Len() != total {
			t.Fatalf("step %d: Len() = %d, want %d", step, tr.Len(), total)
		}
		pieces := collect(tr)
		if len(pieces) != len(model) {
			t.Fatalf("step %d: Count = %d, want %d", step, len(pieces), len(model))
		}
		for i, p := range pieces {
			if p.Length != model[i] {
				t.Fatalf("step %d: piece %d length = %d, want %d", step, i, p.Length, model[i])
			}
		}
		// Locate must agree with the flat model.
		if total > 0 {
			offset := rng.Intn(total)
			ref, r, ok := tr.Locate(offset)
			if !ok {
				t.Fatalf("step %d: Locate(%d) failed", step, offset)
			}
			sum := 0
			for i, n := range model {
				if offset < sum+n {
					if pieces[i] != tr.At(ref) || r != offset-sum {
						t.Fatalf("step %d: Locate(%d) = %+v r=%d, want piece %d r=%d",
							step, offset, tr.At(ref), r, i, offset-sum)
					}
					break
				}
				sum += n
			}
		}
	}
}
