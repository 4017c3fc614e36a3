package dedupe_test

import (
	"testing"

	"github.com/nordnytt/aggregator/internal/dedupe"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tokens := dedupe.Tokenize("Hello, World! Østlandet 2024")
	expected := []string{"hello", "world", "østlandet", "2024"}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %v", len(expected), tokens)
	}
	for i, tok := range expected {
		if tokens[i] != tok {
			t.Errorf("token %d: expected %q, got %q", i, tok, tokens[i])
		}
	}
}

func TestSignature_SameTokenSetSameSignature(t *testing.T) {
	t.Parallel()

	a := dedupe.Signature(dedupe.Tokenize("hello world"))
	b := dedupe.Signature(dedupe.Tokenize("world hello hello"))

	if dedupe.EstimateSimilarity(a, b) != 1.0 {
		t.Error("expected identical token sets to have identical signatures")
	}
}

func TestEstimateSimilarity_Bounds(t *testing.T) {
	t.Parallel()

	a := dedupe.Signature(dedupe.Tokenize("alpha beta gamma delta epsilon"))
	b := dedupe.Signature(dedupe.Tokenize("zeta eta theta iota kappa"))

	sim := dedupe.EstimateSimilarity(a, b)
	if sim < 0 || sim > 0.5 {
		t.Errorf("expected low similarity for disjoint token sets, got %f", sim)
	}
}

func TestHexSignature_Length(t *testing.T) {
	t.Parallel()

	sig := dedupe.Signature(dedupe.Tokenize("some text"))

	// 128 components, 8 bytes each, hex-encoded.
	if got := len(dedupe.HexSignature(sig)); got != 2048 {
		t.Errorf("expected 2048 hex chars, got %d", got)
	}
}
