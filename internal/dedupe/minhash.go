// Package dedupe flags near-duplicate article content using MinHash
// signatures and a banded locality-sensitive-hashing index. The index lives
// for the process lifetime only and is rebuilt empty on restart; durable
// uniqueness is enforced by the article store, not here.
package dedupe

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"regexp"
	"strings"

	"github.com/spaolacci/murmur3"
)

// numPermutations is the fixed MinHash signature length.
const numPermutations = 128

// mersennePrime is the modulus for the universal hash family.
const mersennePrime uint64 = (1 << 61) - 1

// maxHashValue masks permuted hashes back into the 32-bit range of the
// underlying token hash.
const maxHashValue uint64 = (1 << 32) - 1

// permutationSeed fixes the permutation family so signatures are stable
// for the lifetime of a build.
const permutationSeed = 1

// tokenPattern splits text into word tokens (Unicode letters, digits and
// underscore).
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// permutation holds one (a*h + b) % p universal hash. Coefficients stay
// below 2^32 so a*h+b never overflows uint64.
type permutation struct {
	a, b uint64
}

// permutations is the shared hash family for all signatures.
var permutations = makePermutations()

func makePermutations() [numPermutations]permutation {
	rng := rand.New(rand.NewSource(permutationSeed))

	var perms [numPermutations]permutation
	for i := range perms {
		perms[i] = permutation{
			a: uint64(rng.Int63n(int64(maxHashValue)-1)) + 1,
			b: uint64(rng.Int63n(int64(maxHashValue))),
		}
	}

	return perms
}

// Tokenize lower-cases the text and splits it into word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Signature computes the MinHash signature of a token set. An empty token
// set yields the all-max signature.
func Signature(tokens []string) []uint64 {
	sig := make([]uint64, numPermutations)
	for i := range sig {
		sig[i] = maxHashValue
	}

	for _, token := range tokens {
		h := uint64(murmur3.Sum32([]byte(token)))

		for i, p := range permutations {
			v := ((p.a*h + p.b) % mersennePrime) & maxHashValue
			if v < sig[i] {
				sig[i] = v
			}
		}
	}

	return sig
}

// EstimateSimilarity estimates the Jaccard similarity of the token sets
// behind two signatures as the fraction of matching components.
func EstimateSimilarity(a, b []uint64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}

	return float64(matches) / float64(len(a))
}

// HexSignature encodes a signature as hex, eight little-endian bytes per
// component, for storage alongside the article.
func HexSignature(sig []uint64) string {
	buf := make([]byte, 8*len(sig))
	for i, v := range sig {
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}

	return hex.EncodeToString(buf)
}
