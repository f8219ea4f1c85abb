// Package embedding holds helpers shared by the embedder implementations in
// its sub-packages.
package embedding

import "math"

// ModelID builds the identity tag of an embedding space from the provider
// name and the model it serves.
func ModelID(provider, model string) string {
	return provider + "/" + model
}

// ToFloat64 widens a float32 vector as returned by remote APIs.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Normalize scales v to unit L2 length in place. Zero vectors are left as is.
func Normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}
