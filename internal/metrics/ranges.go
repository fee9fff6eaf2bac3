package metrics

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Normal ranges arrive as free text written for clinicians ("< 25%",
// "1.8-2.2", "abs <= 5", "< 60 uV"). The patterns below are tried in
// order; the first match decides the rule. Units and annotations around
// the numbers are ignored.
var (
	reNumber       = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	reAbsCeiling   = regexp.MustCompile(`(?i)(?:abs|\|[^|]*\|)[^<>]*<=?\s*(-?\d+(?:\.\d+)?)`)
	reLessEqual    = regexp.MustCompile(`<=\s*(-?\d+(?:\.\d+)?)`)
	reGreaterEqual = regexp.MustCompile(`>=\s*(-?\d+(?:\.\d+)?)`)
	reLessThan     = regexp.MustCompile(`<\s*(-?\d+(?:\.\d+)?)`)
	reGreaterThan  = regexp.MustCompile(`>\s*(-?\d+(?:\.\d+)?)`)
	reInterval     = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(-?\d+(?:\.\d+)?)`)
)

// InferStatus derives a compliance status by parsing the normal-range
// text against the value. Range text matching no known pattern, or a
// non-finite value, yields MISSING.
func InferStatus(value float64, rangeText string) Status {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return StatusMissing
	}

	text := strings.TrimSpace(rangeText)
	if text == "" {
		return StatusMissing
	}

	if m := reAbsCeiling.FindStringSubmatch(text); m != nil {
		return boolStatus(math.Abs(value) <= mustParse(m[1]))
	}
	if m := reLessEqual.FindStringSubmatch(text); m != nil {
		return boolStatus(value <= mustParse(m[1]))
	}
	if m := reGreaterEqual.FindStringSubmatch(text); m != nil {
		return boolStatus(value >= mustParse(m[1]))
	}
	if m := reLessThan.FindStringSubmatch(text); m != nil {
		return boolStatus(value < mustParse(m[1]))
	}
	if m := reGreaterThan.FindStringSubmatch(text); m != nil {
		return boolStatus(value > mustParse(m[1]))
	}
	if m := reInterval.FindStringSubmatch(text); m != nil {
		lo, hi := mustParse(m[1]), mustParse(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		return boolStatus(value >= lo && value <= hi)
	}

	// Residual: "abs" mentioned with exactly one extractable number is an
	// absolute-value ceiling written without a comparator.
	if strings.Contains(strings.ToLower(text), "abs") {
		if nums := reNumber.FindAllString(text, -1); len(nums) == 1 {
			return boolStatus(math.Abs(value) <= mustParse(nums[0]))
		}
	}

	return StatusMissing
}

func boolStatus(inRange bool) Status {
	if inRange {
		return StatusInRange
	}
	return StatusOutOfRange
}

func mustParse(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
