package utils

import (
	"testing"
	"time"
)

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"x", 5, 5},
		{" 42", 7, 7}, // no trim
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestBoolDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  bool
		want bool
	}{
		{"true", false, true},
		{" TRUE ", false, true},
		{"1", false, true},
		{"0", true, false},
		{"", true, true},
		{"yes", false, false},
	}
	for _, tc := range cases {
		if got := BoolDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("BoolDefault(%q, %v) = %v; want %v", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestSecondsDefault(t *testing.T) {
	if got := SecondsDefault("15", time.Minute); got != 15*time.Second {
		t.Fatalf("got %v", got)
	}
	for _, s := range []string{"", "0", "-3", "soon"} {
		if got := SecondsDefault(s, time.Minute); got != time.Minute {
			t.Fatalf("SecondsDefault(%q) = %v; want default", s, got)
		}
	}
}
