package embedder

import (
	"crypto/md5"
	"encoding/binary"
	"math"
)

// FallbackEmbedding derives a fixed-dimension pseudo-embedding from the MD5
// digest of text. It carries no semantic signal but is deterministic,
// so identical text always lands on the same vector and exact-duplicate
// queries still rank their source chunks first.
func FallbackEmbedding(text string, dim int) []float32 {
	digest := md5.Sum([]byte(text))

	vector := make([]float32, dim)
	for i := range vector {
		b := digest[i%len(digest)]
		// Spread byte values across [-1, 1].
		vector[i] = float32(b)/255*2 - 1
	}
	return vector
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths and
// zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// EncodeVector serializes a vector as little-endian float32 bytes for BLOB
// storage.
func EncodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector. Data whose length is not a
// multiple of four decodes to nil.
func DecodeVector(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}

	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}
