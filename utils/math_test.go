package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcEntropy(t *testing.T) {
	// p = 0.1, 0.3, 0.6 over 3 buckets
	skewed := -(0.1*math.Log2(0.1) + 0.3*math.Log2(0.3) + 0.6*math.Log2(0.6)) / math.Log2(3)

	tests := []struct {
		name string
		m    map[any]int
		want float64
	}{
		{name: "empty", m: map[any]int{}, want: 1},
		{name: "single bucket", m: map[any]int{"10.0.0.1:11211": 5}, want: 1},
		{name: "all zero", m: map[any]int{"a": 0, "b": 0}, want: 1},
		{name: "even", m: map[any]int{"a": 5, "b": 5, "c": 5}, want: 1},
		{name: "skewed", m: map[any]int{"a": 1, "b": 3, "c": 6}, want: skewed},
		{name: "one bucket takes all", m: map[any]int{"a": 10, "b": 0}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalcEntropy(tt.m), epsilon)
		})
	}
}
