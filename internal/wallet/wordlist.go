package wallet

import "github.com/tyler-smith/go-bip39"

// WordListSize is the number of words in the BIP-39 English list.
const WordListSize = 2048

// Words returns a copy of the BIP-39 English word list in index order.
func Words() []string {
	list := bip39.GetWordList()
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// WordIndex returns the 11-bit index of word in the list.
func WordIndex(word string) (int, bool) {
	return bip39.GetWordIndex(word)
}
