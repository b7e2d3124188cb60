package record

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrBadTTL is returned when a TTL string isn't a valid ISO-8601
// duration (PnYnMnDTnHnMnS, with at least one designator present).
var ErrBadTTL = errors.New("invalid ISO-8601 duration")

// Approximations used only for the Y/M calendar designators; D/H/M/S
// are exact. sLS leases are measured in hours at most in practice, so
// this is a reasonable simplification rather than a calendar engine.
const (
	approxYear  = 365 * 24 * time.Hour
	approxMonth = 30 * 24 * time.Hour
)

// ParseTTL parses an ISO-8601 duration such as "PT1H" or "P1DT12H".
// Per spec §9, the wire shape may also be a one-element list
// containing the string; callers normalize that before calling this.
func ParseTTL(s string) (time.Duration, error) {
	if len(s) == 0 || s[0] != 'P' {
		return 0, errors.Wrapf(ErrBadTTL, "%q", s)
	}
	rest := s[1:]
	datePart, timePart, hasTime := strings.Cut(rest, "T")
	if !hasTime {
		datePart = rest
	}

	var total time.Duration
	found := false

	consume := func(part string, units map[byte]time.Duration) error {
		num := strings.Builder{}
		for i := 0; i < len(part); i++ {
			c := part[i]
			if c >= '0' && c <= '9' || c == '.' {
				num.WriteByte(c)
				continue
			}
			unit, ok := units[c]
			if !ok || num.Len() == 0 {
				return errors.Wrapf(ErrBadTTL, "%q", s)
			}
			val, err := strconv.ParseFloat(num.String(), 64)
			if err != nil {
				return errors.Wrapf(ErrBadTTL, "%q", s)
			}
			total += time.Duration(val * float64(unit))
			found = true
			num.Reset()
		}
		if num.Len() > 0 {
			return errors.Wrapf(ErrBadTTL, "%q", s)
		}
		return nil
	}

	if err := consume(datePart, map[byte]time.Duration{
		'Y': approxYear,
		'M': approxMonth,
		'D': 24 * time.Hour,
		'W': 7 * 24 * time.Hour,
	}); err != nil {
		return 0, err
	}
	if hasTime {
		if err := consume(timePart, map[byte]time.Duration{
			'H': time.Hour,
			'M': time.Minute,
			'S': time.Second,
		}); err != nil {
			return 0, err
		}
	}
	if !found {
		return 0, errors.Wrapf(ErrBadTTL, "%q", s)
	}
	return total, nil
}

// FormatTTL renders a duration back to an ISO-8601 duration string,
// using whole hours/minutes/seconds.
func FormatTTL(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	var sb strings.Builder
	sb.WriteString("PT")
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		sb.WriteString(strconv.FormatInt(int64(h), 10) + "H")
	}
	if m > 0 {
		sb.WriteString(strconv.FormatInt(int64(m), 10) + "M")
	}
	if s > 0 || (h == 0 && m == 0) {
		sb.WriteString(strconv.FormatInt(int64(s), 10) + "S")
	}
	return sb.String()
}

// NormalizeTTLField accepts the wire shape of a TTL — either a bare
// string or a one-element list containing it — and returns the
// string form, per spec §9's Open Question resolution.
func NormalizeTTLField(v Value) (string, error) {
	switch v.Kind {
	case KindString:
		return v.Str, nil
	case KindList:
		if len(v.List) != 1 {
			return "", errors.Wrapf(ErrBadTTL, "expected single-element list, got %d", len(v.List))
		}
		return v.List[0], nil
	default:
		return "", ErrBadTTL
	}
}
