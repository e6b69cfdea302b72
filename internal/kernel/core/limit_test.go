package core

import "testing"

func TestClampLimit(t *testing.T) {
	cases := []struct {
		limit, def, max, want int
	}{
		{0, 25, 500, 25},
		{-5, 25, 500, 25},
		{10, 25, 500, 10},
		{1000, 25, 500, 500},
	}
	for _, c := range cases {
		if got := ClampLimit(c.limit, c.def, c.max); got != c.want {
			t.Errorf("ClampLimit(%d, %d, %d) = %d, want %d", c.limit, c.def, c.max, got, c.want)
		}
	}
}
