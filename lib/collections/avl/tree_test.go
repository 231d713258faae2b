package avl

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/google/btree"
)

// oracleItem is the reference ordering used to cross-check the tree.
type oracleItem struct {
	key   int
	value string
}

func (i oracleItem) Less(than btree.Item) bool {
	return i.key < than.(oracleItem).key
}

func mustValidate(t *testing.T, tree *Tree[int, string], step string) {
	t.Helper()
	if err := tree.Validate(); err != nil {
		t.Fatalf("%s: %v\n%s", step, err, tree)
	}
}

func TestInsertLookup(t *testing.T) {
	tree := NewOrdered[int, string]()
	for i := 0; i < 100; i++ {
		tree.Set(i, fmt.Sprintf("v%d", i))
		mustValidate(t, tree, fmt.Sprintf("insert %d", i))
	}
	if tree.Count() != 100 {
		t.Fatalf("Expected 100 entries, got %d", tree.Count())
	}
	for i := 0; i < 100; i++ {
		if v, ok := tree.TryGet(i); !ok || v != fmt.Sprintf("v%d", i) {
			t.Errorf("TryGet(%d) = %q, %v", i, v, ok)
		}
	}
	if _, ok := tree.TryGet(100); ok {
		t.Errorf("Expected key 100 to be absent")
	}
}

func TestOverwriteKeepsCount(t *testing.T) {
	tree := NewOrdered[string, int]()
	tree.Set("a", 1)
	tree.Set("a", 2)
	if tree.Count() != 1 {
		t.Errorf("Expected count 1, got %d", tree.Count())
	}
	if got := tree.Get("a"); got != 2 {
		t.Errorf("Expected latest value 2, got %d", got)
	}
}

func TestZeroValueAmbiguity(t *testing.T) {
	tree := NewOrdered[string, int]()
	tree.Set("zero", 0)

	if tree.Get("zero") != tree.Get("missing") {
		t.Errorf("Get should return the zero value for both keys")
	}
	if _, ok := tree.TryGet("zero"); !ok {
		t.Errorf("TryGet should find the stored zero value")
	}
	if _, ok := tree.TryGet("missing"); ok {
		t.Errorf("TryGet should not find a missing key")
	}
}

func TestRemoveCases(t *testing.T) {
	tests := []struct {
		name   string
		insert []int
		remove int
	}{
		{"leaf", []int{2, 1, 3}, 3},
		{"one child", []int{2, 1, 3, 4}, 3},
		{"root with one child", []int{1, 2}, 1},
		{"two children, successor is right child", []int{4, 2, 6, 1, 3, 5, 7}, 2},
		{"two children, deep successor", []int{4, 2, 8, 1, 3, 6, 9, 5, 7}, 4},
		{"deep successor with right child", []int{5, 2, 9, 1, 3, 7, 10, 4, 6, 8, 11}, 5},
		{"last node", []int{1}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := NewOrdered[int, string]()
			for _, k := range tc.insert {
				tree.Set(k, "x")
			}
			mustValidate(t, tree, "setup")

			if !tree.Remove(tc.remove) {
				t.Fatalf("Remove(%d) returned false", tc.remove)
			}
			mustValidate(t, tree, "remove")

			if tree.ContainsKey(tc.remove) {
				t.Errorf("Key %d still present", tc.remove)
			}
			if tree.Count() != len(tc.insert)-1 {
				t.Errorf("Expected count %d, got %d", len(tc.insert)-1, tree.Count())
			}
			if tree.Remove(tc.remove) {
				t.Errorf("Second Remove(%d) should return false", tc.remove)
			}
		})
	}
}

func TestRemovePair(t *testing.T) {
	tree := NewOrdered[int, string]()
	tree.Set(1, "one")

	if tree.ContainsPair(1, "uno") || tree.RemovePair(1, "uno") {
		t.Errorf("Pair with a different value must not match")
	}
	if !tree.ContainsPair(1, "one") || !tree.RemovePair(1, "one") {
		t.Errorf("Matching pair should be found and removed")
	}
	if tree.Count() != 0 {
		t.Errorf("Expected empty tree, got %d entries", tree.Count())
	}
}

func TestRandomOperationsAgainstOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := NewOrdered[int, string]()
	oracle := btree.New(4)

	for step := 0; step < 5000; step++ {
		key := rng.Intn(500)
		if rng.Intn(3) == 0 {
			removed := tree.Remove(key)
			expected := oracle.Delete(oracleItem{key: key}) != nil
			if removed != expected {
				t.Fatalf("step %d: Remove(%d) = %v, oracle %v", step, key, removed, expected)
			}
		} else {
			value := fmt.Sprintf("v%d-%d", key, step)
			tree.Set(key, value)
			oracle.ReplaceOrInsert(oracleItem{key: key, value: value})
		}
		mustValidate(t, tree, fmt.Sprintf("step %d", step))

		if tree.Count() != oracle.Len() {
			t.Fatalf("step %d: count %d, oracle %d", step, tree.Count(), oracle.Len())
		}
	}

	var expected []oracleItem
	oracle.Ascend(func(i btree.Item) bool {
		expected = append(expected, i.(oracleItem))
		return true
	})
	var actual []oracleItem
	for k, v := range tree.All() {
		actual = append(actual, oracleItem{key: k, value: v})
	}
	if !slices.Equal(expected, actual) {
		t.Errorf("In-order content differs from oracle")
	}
}

func TestDescendingAndAscendingBulk(t *testing.T) {
	tree := NewOrdered[int, string]()
	for i := 1000; i > 0; i-- {
		tree.Set(i, "")
	}
	mustValidate(t, tree, "descending insert")

	// an AVL tree with n nodes is at most ~1.44 log2(n) high
	if h := tree.arena.height(tree.root); h > 15 {
		t.Errorf("Tree too high: %d", h)
	}

	for i := 1; i <= 1000; i += 2 {
		tree.Remove(i)
		mustValidate(t, tree, fmt.Sprintf("remove %d", i))
	}
	if tree.Count() != 500 {
		t.Errorf("Expected 500 entries, got %d", tree.Count())
	}
}

func TestIteration(t *testing.T) {
	tree := NewOrdered[int, int]()
	for _, k := range []int{5, 3, 8, 1, 4, 7, 9, 2, 6} {
		tree.Set(k, k*10)
	}

	keys := slices.Collect(tree.Keys())
	if !slices.Equal(keys, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}) {
		t.Errorf("Unexpected key order %v", keys)
	}
	values := slices.Collect(tree.Values())
	if values[0] != 10 || values[8] != 90 {
		t.Errorf("Unexpected values %v", values)
	}

	// walk backwards with Prev
	var back []int
	for h := tree.arena.Last(tree.root); h != Nil; h = tree.arena.Prev(h) {
		back = append(back, tree.arena.Key(h))
	}
	if !slices.Equal(back, []int{9, 8, 7, 6, 5, 4, 3, 2, 1}) {
		t.Errorf("Unexpected reverse order %v", back)
	}

	if k, _, ok := tree.Min(); !ok || k != 1 {
		t.Errorf("Min = %d, %v", k, ok)
	}
	if k, _, ok := tree.Max(); !ok || k != 9 {
		t.Errorf("Max = %d, %v", k, ok)
	}

	// early break
	n := 0
	for range tree.All() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("Expected to stop after 3 entries")
	}
}

func TestSharedArena(t *testing.T) {
	arena := NewArena[int, string](func(a, b int) int { return a - b }, 0)
	var even, odd Handle

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			arena.Insert(&even, i, "even")
		} else {
			arena.Insert(&odd, i, "odd")
		}
	}
	for i := 0; i < 200; i += 4 {
		arena.Delete(&even, arena.Find(even, i))
	}

	ne, err := arena.Validate(even)
	if err != nil {
		t.Fatalf("even tree: %v", err)
	}
	no, err := arena.Validate(odd)
	if err != nil {
		t.Fatalf("odd tree: %v", err)
	}
	if ne != 50 || no != 100 || arena.Len() != 150 {
		t.Errorf("Unexpected sizes even=%d odd=%d arena=%d", ne, no, arena.Len())
	}

	arena.Clear(&even)
	if even != Nil || arena.Len() != 100 {
		t.Errorf("Clear should only drop the even tree")
	}

	// released slots are reused
	before := len(arena.nodes)
	arena.Insert(&even, 1000, "reused")
	if len(arena.nodes) != before {
		t.Errorf("Expected a free slot to be reused")
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	build := func() *Tree[int, string] {
		tree := NewOrdered[int, string]()
		for _, k := range []int{4, 2, 6, 1, 3, 5, 7} {
			tree.Set(k, "")
		}
		return tree
	}

	tests := []struct {
		name    string
		corrupt func(tr *Tree[int, string])
	}{
		{"depth", func(tr *Tree[int, string]) { tr.arena.nodes[tr.root].depthL++ }},
		{"side flag", func(tr *Tree[int, string]) {
			l := tr.arena.nodes[tr.root].left
			tr.arena.nodes[l].isLeft = false
		}},
		{"parent", func(tr *Tree[int, string]) {
			l := tr.arena.nodes[tr.root].left
			tr.arena.nodes[l].parent = Nil
		}},
		{"ordering", func(tr *Tree[int, string]) {
			l := tr.arena.nodes[tr.root].left
			tr.arena.nodes[l].key = 100
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := build()
			tc.corrupt(tree)
			if err := tree.Validate(); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	tree := NewOrdered[string, int]()
	for i := 0; i < 300; i++ {
		tree.Set(fmt.Sprintf("key-%03d", i), i)
	}

	var buf bytes.Buffer
	if err := tree.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewOrdered[string, int]()
	loaded.Set("stale", 1)
	if err := loaded.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatalf("Loaded tree invalid: %v", err)
	}
	if loaded.ContainsKey("stale") || loaded.Count() != 300 {
		t.Errorf("Load should replace the content, got %d entries", loaded.Count())
	}
	if v, ok := loaded.TryGet("key-150"); !ok || v != 150 {
		t.Errorf("TryGet(key-150) = %d, %v", v, ok)
	}

	// loaded trees keep working
	loaded.Remove("key-000")
	loaded.Set("key-999", 999)
	if err := loaded.Validate(); err != nil {
		t.Errorf("Modified tree invalid: %v", err)
	}
}

func TestRestoreRejectsBadRecords(t *testing.T) {
	arena := NewArena[int, int](func(a, b int) int { return a - b }, 0)

	// child index pointing back at the root
	_, _, err := arena.Restore([]NodeRecord[int, int]{
		{Key: 1, Left: -1, Right: 0},
	})
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt for a self reference, got %v", err)
	}

	// order violation
	arena = NewArena[int, int](func(a, b int) int { return a - b }, 0)
	_, _, err = arena.Restore([]NodeRecord[int, int]{
		{Key: 1, Left: 1, Right: -1, DepthL: 1},
		{Key: 2, Left: -1, Right: -1},
	})
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt for misordered keys, got %v", err)
	}
}

func BenchmarkTreeSet(b *testing.B) {
	tree := NewOrdered[int, int]()
	for i := 0; i < b.N; i++ {
		tree.Set(i, i)
	}
}

func BenchmarkTreeGet(b *testing.B) {
	tree := NewOrdered[int, int]()
	for i := 0; i < 1<<16; i++ {
		tree.Set(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Get(i & (1<<16 - 1))
	}
}

// linkRightChain links the keys 1..n of a fresh tree into a right leaning
// chain without touching the depth counters and returns the handles.
func linkRightChain(n int) (*Tree[int, string], []Handle) {
	tree := NewOrdered[int, string]()
	handles := make([]Handle, n)
	for i := range n {
		handles[i] = tree.arena.alloc(i+1, "")
		if i > 0 {
			tree.arena.nodes[handles[i-1]].right = handles[i]
			tree.arena.nodes[handles[i]].parent = handles[i-1]
		}
	}
	tree.root = handles[0]
	return tree, handles
}

func TestRebalanceRepairsHeavyChild(t *testing.T) {
	// 1 -> 2 -> 3 -> 4: balance 3 at the root, 2 at its right child
	tree, handles := linkRightChain(4)
	for i := len(handles) - 1; i >= 0; i-- {
		tree.arena.updateDepth(handles[i])
	}
	if b := tree.arena.balance(tree.root); b != 3 {
		t.Fatalf("Expected balance 3 at the root, got %d", b)
	}

	tree.arena.rebalance(&tree.root, tree.root)
	mustValidate(t, tree, "rebalance")
	if k := tree.arena.Key(tree.root); k != 3 {
		t.Errorf("Expected 3 as new root, got %d\n%s", k, tree)
	}
	if got := slices.Collect(tree.Keys()); !slices.Equal(got, []int{1, 2, 3, 4}) {
		t.Errorf("Unexpected keys %v", got)
	}
}

func TestBubbleUpRepairsChain(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprintf("chain %d", n), func(t *testing.T) {
			tree, handles := linkRightChain(n)
			tree.arena.bubbleUpRemove(&tree.root, handles[n-1])
			mustValidate(t, tree, "bubble up")
			if tree.Count() != n {
				t.Errorf("Expected %d entries, got %d", n, tree.Count())
			}
		})
	}

	// the repair reaches one level below the unbalanced node, a longer
	// chain keeps a node of balance 2
	tree, handles := linkRightChain(8)
	tree.arena.bubbleUpRemove(&tree.root, handles[7])
	if err := tree.Validate(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected a chain of 8 to stay out of balance, got %v\n%s", err, tree)
	}
}
