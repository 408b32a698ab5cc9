package backend

// k-mer frequency features shared by the in-process backends. Sequences map
// to a fixed 4^k vector of overlapping k-mer frequencies; windows containing
// ambiguity codes are skipped.

import "math"

// KmerSize is the k used by the local and ONNX backends. 4^3 = 64 features.
const KmerSize = 3

// KmerDims returns the feature vector length for the given k.
func KmerDims(k int) int {
	d := 1
	for i := 0; i < k; i++ {
		d *= 4
	}
	return d
}

var baseIndex = [256]int8{}

func init() {
	for i := range baseIndex {
		baseIndex[i] = -1
	}
	baseIndex['A'], baseIndex['a'] = 0, 0
	baseIndex['C'], baseIndex['c'] = 1, 1
	baseIndex['G'], baseIndex['g'] = 2, 2
	baseIndex['T'], baseIndex['t'] = 3, 3
	// RNA input is treated as DNA.
	baseIndex['U'], baseIndex['u'] = 3, 3
}

// KmerVector computes the L1-normalized k-mer frequency vector of seq.
// A sequence with no unambiguous window yields the zero vector.
func KmerVector(seq string, k int) []float32 {
	dims := KmerDims(k)
	vec := make([]float32, dims)
	if len(seq) < k {
		return vec
	}

	total := 0
	for i := 0; i+k <= len(seq); i++ {
		idx := 0
		ok := true
		for j := 0; j < k; j++ {
			b := baseIndex[seq[i+j]]
			if b < 0 {
				ok = false
				break
			}
			idx = idx*4 + int(b)
		}
		if !ok {
			continue
		}
		vec[idx]++
		total++
	}
	if total > 0 {
		inv := float32(1) / float32(total)
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// Cosine returns the cosine similarity of two equal-length vectors, or 0 when
// either is the zero vector.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
