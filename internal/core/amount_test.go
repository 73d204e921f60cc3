package core

import "testing"

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		nil_ bool
	}{
		{"123", 123, false},
		{"１２３", 123, false},
		{"１２3", 123, false}, // mixed widths
		{"1,200円", 1200, false},
		{"¥3000", 3000, false},
		{"0", 0, false},
		{"", 0, true},
		{"abc¥", 0, true},
		{"ー＊！", 0, true}, // full-width non-digits only
		{"  42  ", 42, false},
	}
	for _, tc := range cases {
		got := NormalizeAmount(tc.in)
		if tc.nil_ {
			if got != nil {
				t.Errorf("NormalizeAmount(%q) = %d, want nil", tc.in, *got)
			}
			continue
		}
		if got == nil {
			t.Errorf("NormalizeAmount(%q) = nil, want %d", tc.in, tc.want)
			continue
		}
		if *got != tc.want {
			t.Errorf("NormalizeAmount(%q) = %d, want %d", tc.in, *got, tc.want)
		}
	}
}

func TestNormalizeAmountIdempotent(t *testing.T) {
	first := NormalizeAmount("００１２３４")
	if first == nil {
		t.Fatal("expected value")
	}
	second := NormalizeAmount(FormatYenValue(*first))
	if second == nil || *second != *first {
		t.Fatalf("normalizing formatted output changed value: %v -> %v", *first, second)
	}
}

func TestNormalizeAmountOrZero(t *testing.T) {
	if got := NormalizeAmountOrZero("abc"); got != 0 {
		t.Errorf("expected 0 for non-digit input, got %d", got)
	}
	if got := NormalizeAmountOrZero("７００"); got != 700 {
		t.Errorf("expected 700, got %d", got)
	}
}
