package core

import "testing"

func TestFormatRatioNullSafety(t *testing.T) {
	// A day without sales carries nil ratios; rendering must produce "-",
	// never an Inf/NaN artifact.
	if got := FormatRatio(nil); got != "-" {
		t.Errorf("FormatRatio(nil) = %q, want \"-\"", got)
	}
	r := 0.3456
	if got := FormatRatio(&r); got != "34.56 %" {
		t.Errorf("FormatRatio(0.3456) = %q", got)
	}
	zero := 0.0
	if got := FormatRatio(&zero); got != "0.00 %" {
		t.Errorf("FormatRatio(0) = %q", got)
	}
}

func TestFormatYen(t *testing.T) {
	if got := FormatYen(nil); got != "-" {
		t.Errorf("FormatYen(nil) = %q, want \"-\"", got)
	}
	v := int64(1234567)
	if got := FormatYen(&v); got != "1,234,567 yen" {
		t.Errorf("FormatYen(1234567) = %q", got)
	}
	if got := FormatYenValue(0); got != "0 yen" {
		t.Errorf("FormatYenValue(0) = %q", got)
	}
	if got := FormatYenValue(999); got != "999 yen" {
		t.Errorf("FormatYenValue(999) = %q", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{
		0:   "0h00m",
		59:  "0h59m",
		60:  "1h00m",
		485: "8h05m",
	}
	for in, want := range cases {
		if got := FormatMinutes(in); got != want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", in, got, want)
		}
	}
}
