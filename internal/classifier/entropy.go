package classifier

import (
	"bytes"
	"math"
)

const (
	// minEntropySample is the smallest head the entropy test is trusted on
	minEntropySample = 256
	// binaryEntropy is the bits-per-byte level above which a NUL-free head
	// is treated as compressed or encrypted data
	binaryEntropy = 7.0
)

// shannonEntropy calculates Shannon entropy of data.
// Returns value between 0 (uniform) and 8 (maximum randomness for bytes)
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	// Count byte frequencies
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	length := float64(len(data))
	var entropy float64
	for _, count := range freq {
		if count > 0 {
			p := float64(count) / length
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// looksBinary reports whether a file head holds non-text data: a NUL byte,
// or near-random bytes over a large enough sample
func looksBinary(head []byte) bool {
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	return len(head) >= minEntropySample && shannonEntropy(head) >= binaryEntropy
}
