package catalog

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float32{1, 0, 0},
			b:    []float32{1, 0, 0},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0, 0},
			b:    []float32{0, 1, 0},
			want: 0.0,
		},
		{
			name: "opposite vectors clamp to zero",
			a:    []float32{1, 0, 0},
			b:    []float32{-1, 0, 0},
			want: 0.0,
		},
		{
			name: "dimension mismatch scores zero",
			a:    []float32{1, 0},
			b:    []float32{1, 0, 0},
			want: 0.0,
		},
		{
			name: "empty vectors score zero",
			a:    nil,
			b:    nil,
			want: 0.0,
		},
		{
			name: "zero vector scores zero",
			a:    []float32{0, 0, 0},
			b:    []float32{1, 0, 0},
			want: 0.0,
		},
		{
			name: "unnormalized inputs still give cosine",
			a:    []float32{2, 0, 0},
			b:    []float32{5, 0, 0},
			want: 1.0,
		},
		{
			name: "known angle",
			a:    []float32{1, 1, 0},
			b:    []float32{1, 0, 0},
			want: 1 / math.Sqrt2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}
