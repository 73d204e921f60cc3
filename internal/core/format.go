package core

import (
	"fmt"
	"strconv"
)

// FormatYen renders a whole-yen amount with thousands separators, e.g.
// "1,234 yen". A nil amount renders as "-".
func FormatYen(amount *int64) string {
	if amount == nil {
		return "-"
	}
	return groupDigits(*amount) + " yen"
}

// FormatYenValue is FormatYen for amounts that are never unset.
func FormatYenValue(amount int64) string {
	return groupDigits(amount) + " yen"
}

// FormatRatio renders a ratio as a percentage with two decimals, e.g.
// "12.34 %". A nil ratio renders as "-"; the nil comes from the server when
// the denominator is undefined, so no division ever happens client-side and
// Inf/NaN cannot appear.
func FormatRatio(ratio *float64) string {
	if ratio == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f %%", *ratio*100)
}

// FormatMinutes renders worked minutes as "XhYYm".
func FormatMinutes(totalMinutes int) string {
	return fmt.Sprintf("%dh%02dm", totalMinutes/60, totalMinutes%60)
}

func groupDigits(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > 3 {
		var out []byte
		for i, c := range []byte(s) {
			if i > 0 && (len(s)-i)%3 == 0 {
				out = append(out, ',')
			}
			out = append(out, c)
		}
		s = string(out)
	}
	if neg {
		return "-" + s
	}
	return s
}
