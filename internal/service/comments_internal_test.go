package service

import "testing"

func TestCoerceVotes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{" 7 ", 7},
		{"", 0},
		{"abc", 0},
		{"1.2K", 0},
		{"-3", -3},
	}

	for _, tc := range cases {
		if got := coerceVotes(tc.in); got != tc.want {
			t.Errorf("coerceVotes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
