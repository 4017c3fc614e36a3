package dedupe

import "sync"

// DefaultThreshold is the estimated-similarity level above which two texts
// are treated as the same content.
const DefaultThreshold = 0.85

// Filter is the process-lifetime near-duplicate index. It is safe for
// concurrent use: check and insert happen under one lock so two similar
// items can never race past each other.
type Filter struct {
	mu        sync.Mutex
	index     *lshIndex
	threshold float64
}

// NewFilter creates a Filter. A non-positive threshold selects
// DefaultThreshold.
func NewFilter(threshold float64) *Filter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Filter{
		index:     newLSHIndex(threshold),
		threshold: threshold,
	}
}

// CheckAndRegister computes the MinHash signature of text and queries the
// index for a prior near-duplicate. If one is found the candidate is
// rejected and nothing is inserted; otherwise the signature is registered
// under key. The hex-encoded signature is returned either way so it can be
// stored for audit. Keys must be unique per call within the filter's
// lifetime (the canonical URL is used).
func (f *Filter) CheckAndRegister(key, text string) (isDuplicate bool, signatureHex string) {
	sig := Signature(Tokenize(text))
	hexSig := HexSignature(sig)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, candidate := range f.index.query(sig) {
		if EstimateSimilarity(sig, f.index.signature(candidate)) >= f.threshold {
			return true, hexSig
		}
	}

	f.index.add(key, sig)

	return false, hexSig
}
