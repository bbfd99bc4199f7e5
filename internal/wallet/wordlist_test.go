package wallet

import "testing"

func TestWords(t *testing.T) {
	words := Words()
	if len(words) != WordListSize {
		t.Fatalf("len(Words()) = %d, want %d", len(words), WordListSize)
	}
	if words[0] != "abandon" || words[3] != "about" || words[WordListSize-1] != "zoo" {
		t.Errorf("unexpected list boundaries: %q %q %q", words[0], words[3], words[WordListSize-1])
	}

	words[0] = "mutated"
	if Words()[0] != "abandon" {
		t.Error("Words() must return a copy")
	}
}

func TestWordIndex(t *testing.T) {
	for i, w := range Words() {
		idx, ok := WordIndex(w)
		if !ok || idx != i {
			t.Fatalf("WordIndex(%q) = %d, %v; want %d, true", w, idx, ok, i)
		}
	}
	if _, ok := WordIndex("notaword"); ok {
		t.Error("WordIndex() found a word outside the list")
	}
}
