package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{200, 20000},
		{499.5, 49950},
		{19.995, 2000}, // rounds half up, never truncates
		{0.01, 1},
		{0, 0},
		{1234.56, 123456},
		{0.005, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToMinorUnits(tc.amount), "amount=%v", tc.amount)
	}
}
