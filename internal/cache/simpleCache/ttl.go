package simpleCache

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"simplecache/internal/models"
)

// TTL is a time-to-live accepted by the cache. A nil TTL leaves expiration
// to the backend. The set of implementations is closed: Seconds and Interval.
type TTL interface {
	seconds(now time.Time) int
}

// Seconds is a TTL expressed as a raw number of seconds.
// Zero and negative values are passed to the backend untouched.
type Seconds int

func (s Seconds) seconds(time.Time) int {
	return int(s)
}

// Interval is a TTL measured from the moment of the call. Years, months and
// days follow the calendar, so one month from January 1st is 31 days.
type Interval struct {
	Years    int
	Months   int
	Days     int
	Duration time.Duration
}

func (i Interval) seconds(now time.Time) int {
	then := now.AddDate(i.Years, i.Months, i.Days).Add(i.Duration)
	return int(then.Unix() - now.Unix())
}

// After returns an Interval of fixed length d
func After(d time.Duration) Interval {
	return Interval{Duration: d}
}

// NormalizeTTL converts ttl into integer seconds relative to now
func NormalizeTTL(ttl TTL, now time.Time) int {
	if ttl == nil {
		return 0
	}
	return ttl.seconds(now)
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseTTL reads a textual TTL: integer seconds ("3600", "-1"), an ISO-8601
// duration ("P1M", "PT2H30M", "P2W") or a Go duration ("90s"). An empty
// string yields a nil TTL.
func ParseTTL(s string) (TTL, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		return Seconds(n), nil
	}

	if strings.HasPrefix(s, "P") {
		return parseISODuration(s)
	}

	if d, err := time.ParseDuration(s); err == nil {
		return After(d), nil
	}

	return nil, models.NewInvalidArgumentError("parse_ttl", "", "unrecognized ttl "+strconv.Quote(s))
}

// maxCalendarUnits bounds the year, month, week and day components so that
// the resulting Interval stays within the range of a unix timestamp
const maxCalendarUnits = 1_000_000_000

func parseISODuration(s string) (TTL, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return nil, models.NewInvalidArgumentError("parse_ttl", "", "malformed ISO-8601 duration "+strconv.Quote(s))
	}

	outOfRange := models.NewInvalidArgumentError("parse_ttl", "", "ISO-8601 component out of range in "+strconv.Quote(s))

	n := make([]int64, len(m))
	for i := 1; i < len(m); i++ {
		if m[i] == "" {
			continue
		}
		v, err := strconv.ParseInt(m[i], 10, 64)
		if err != nil {
			return nil, outOfRange
		}
		if i <= 4 && v > maxCalendarUnits {
			return nil, outOfRange
		}
		n[i] = v
	}

	// Hours, minutes and seconds must fit a time.Duration
	var clock time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		v := n[5+i]
		if v > int64(math.MaxInt64-clock)/int64(unit) {
			return nil, outOfRange
		}
		clock += time.Duration(v) * unit
	}

	return Interval{
		Years:    int(n[1]),
		Months:   int(n[2]),
		Days:     int(n[3]*7 + n[4]),
		Duration: clock,
	}, nil
}
