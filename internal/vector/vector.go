package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DimensionMismatchError is returned when two vectors of different lengths
// are compared. This usually means embeddings from different models ended up
// under the same model tag, so the error must stay detectable instead of
// surfacing as an opaque arithmetic failure.
type DimensionMismatchError struct {
	Left  int
	Right int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: %d vs %d", e.Left, e.Right)
}

// Cosine computes the cosine similarity between a and b. If either vector has
// zero norm the similarity is defined as 0.0. Vectors of different lengths
// yield a *DimensionMismatchError.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Left: len(a), Right: len(b)}
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}

	return dot / denom, nil
}

// Encode serializes a vector as little-endian 32-bit floats, 4 bytes per
// component. This is the on-disk layout used by embedding dumps.
func Encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector payload of %d bytes is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
