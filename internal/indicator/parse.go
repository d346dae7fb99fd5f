package indicator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kyuwon/tradewind/internal/core"
)

var numberPattern = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)

// ParseNumeric parses a fundamentals field that may be a number, a percent
// string like "12%", or a comma-formatted string like "1,234.5". Percent
// strings come back on the decimal scale ("12%" -> 0.12); plain values keep
// their scale. Missing or unparseable input is a PARSE_FAILURE, a first-class
// value for callers, never a panic.
func ParseNumeric(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, core.WrapError(core.ErrParseFailure, fmt.Errorf("nil value"))
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if strings.HasSuffix(s, "%") {
			num := strings.ReplaceAll(strings.TrimSpace(strings.TrimSuffix(s, "%")), ",", "")
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, core.WrapError(core.ErrParseFailure, err)
			}
			return f / 100, nil
		}
		s = strings.ReplaceAll(s, ",", "")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		// formats like "+12.3pts" still carry a leading number
		if m := numberPattern.FindString(s); m != "" {
			f, err := strconv.ParseFloat(m, 64)
			if err == nil {
				return f, nil
			}
		}
		return 0, core.WrapError(core.ErrParseFailure, fmt.Errorf("unparseable value %q", x))
	default:
		return 0, core.WrapError(core.ErrParseFailure, fmt.Errorf("unsupported type %T", v))
	}
}
