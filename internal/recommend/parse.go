package recommend

import (
	"regexp"
	"strconv"

	"github.com/kyuwon/tradewind/internal/core"
)

var percentPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)

// ParsePercent pulls the first percentage out of free text and returns it in
// percent units (e.g. "allocate 12.5% of cash" -> 12.5). Returns
// ErrNoPercentage when no match is found.
func ParsePercent(text string) (float64, error) {
	m := percentPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, core.ErrNoPercentage
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, core.WrapError(core.ErrNoPercentage, err)
	}
	return v, nil
}
