package car

import "testing"

func TestTrieSubsetSearch(t *testing.T) {
	tr := NewTrie()
	c := []int{1, -3, 5}
	sortCube(c)
	tr.Insert(c)

	if !tr.Search([]int{1, -3, 5}) {
		t.Fatal("exact match not found")
	}
	if !tr.Search([]int{1, 2, -3, 4, 5}) {
		t.Fatal("superset of an inserted cube should be subsumed")
	}
	if tr.Search([]int{1, 3, 5}) {
		t.Fatal("opposite sign at var 3 must not match")
	}
	if tr.Search([]int{1, -3}) {
		t.Fatal("a proper subset of the inserted cube should not itself be subsumed")
	}
	if tr.Search([]int{2, 4}) {
		t.Fatal("disjoint cube should not be subsumed")
	}
}

func TestTrieEmpty(t *testing.T) {
	tr := NewTrie()
	if tr.Search([]int{1, 2}) {
		t.Fatal("empty trie should subsume nothing")
	}
	tr.Insert(nil)
	if !tr.Search([]int{1, 2}) {
		t.Fatal("an inserted empty cube subsumes everything")
	}
}
