package dedupe

import "math"

// integrationStep is the step width for the band/row error integration.
const integrationStep = 0.001

// lshIndex is a banded LSH index over MinHash signatures. Signatures are
// split into bands of rows components; signatures sharing any band bucket
// become candidate pairs.
type lshIndex struct {
	bands      int
	rows       int
	buckets    []map[string][]string // one bucket map per band
	signatures map[string][]uint64
}

// newLSHIndex builds an index whose band/row split is tuned for the given
// similarity threshold.
func newLSHIndex(threshold float64) *lshIndex {
	bands, rows := optimalBandsRows(threshold, numPermutations)

	buckets := make([]map[string][]string, bands)
	for i := range buckets {
		buckets[i] = make(map[string][]string)
	}

	return &lshIndex{
		bands:      bands,
		rows:       rows,
		buckets:    buckets,
		signatures: make(map[string][]uint64),
	}
}

// add inserts a signature under the given key. Keys must be unique for the
// index lifetime; the caller guarantees this.
func (x *lshIndex) add(key string, sig []uint64) {
	for band := 0; band < x.bands; band++ {
		bucket := x.bandKey(sig, band)
		x.buckets[band][bucket] = append(x.buckets[band][bucket], key)
	}

	x.signatures[key] = sig
}

// query returns the keys of all signatures sharing at least one band
// bucket with sig. Candidates still need a similarity check against the
// threshold.
func (x *lshIndex) query(sig []uint64) []string {
	seen := make(map[string]struct{})

	var candidates []string
	for band := 0; band < x.bands; band++ {
		for _, key := range x.buckets[band][x.bandKey(sig, band)] {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
			candidates = append(candidates, key)
		}
	}

	return candidates
}

// signature returns the stored signature for a key.
func (x *lshIndex) signature(key string) []uint64 {
	return x.signatures[key]
}

// bandKey encodes one band of a signature as a bucket key.
func (x *lshIndex) bandKey(sig []uint64, band int) string {
	buf := make([]byte, 0, x.rows*8)

	for _, v := range sig[band*x.rows : (band+1)*x.rows] {
		buf = append(buf,
			byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
			byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56),
		)
	}

	return string(buf)
}

// optimalBandsRows picks the band/row split of numPerm components that
// minimizes the combined false-positive and false-negative probability at
// the given threshold.
func optimalBandsRows(threshold float64, numPerm int) (int, int) {
	bestBands, bestRows := 1, numPerm
	bestError := math.MaxFloat64

	for bands := 1; bands <= numPerm; bands++ {
		maxRows := numPerm / bands
		for rows := 1; rows <= maxRows; rows++ {
			fp := integrate(func(s float64) float64 {
				return collisionProbability(s, bands, rows)
			}, 0, threshold)

			fn := integrate(func(s float64) float64 {
				return 1 - collisionProbability(s, bands, rows)
			}, threshold, 1)

			if err := fp + fn; err < bestError {
				bestError = err
				bestBands, bestRows = bands, rows
			}
		}
	}

	return bestBands, bestRows
}

// collisionProbability is the chance that two signatures with Jaccard
// similarity s collide in at least one band.
func collisionProbability(s float64, bands, rows int) float64 {
	return 1 - math.Pow(1-math.Pow(s, float64(rows)), float64(bands))
}

// integrate approximates the integral of f over [lo, hi] by midpoint sum.
func integrate(f func(float64) float64, lo, hi float64) float64 {
	sum := 0.0
	for s := lo + integrationStep/2; s < hi; s += integrationStep {
		sum += f(s) * integrationStep
	}

	return sum
}
