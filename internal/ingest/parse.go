package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fomalhaut/cclogs/internal/store"
)

// messageLine matches a single transcript line: "[HH:MM:SS] <author> body".
// Lines that don't match are skipped silently; the 0-based index of a line
// within the source text is its offset.
var messageLine = regexp.MustCompile(`^\[(\d{2}:\d{2}:\d{2})\] <([^>]+)> (.+)`)

// sourceZone is the fixed local timezone the upstream log timestamps are
// recorded in.
var sourceZone = mustLoadLocation("Europe/Kiev")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 2*60*60)
	}
	return loc
}

// parseLines turns raw daily log text into message rows for date, keeping
// only lines with offset > cutOffset. Lines that fail to match the
// transcript format are skipped silently; lines whose clock is malformed
// or whose local time is ambiguous or doesn't exist (DST
// fall-back/spring-forward) are skipped and reported through onSkip.
func parseLines(raw string, date time.Time, cutOffset int32, onSkip func(reason, line string)) []store.Message {
	var rows []store.Message
	for i, line := range strings.Split(raw, "\n") {
		offset := int32(i)
		m := messageLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if offset <= cutOffset {
			continue
		}

		hh, mm, ss, ok := splitClock(m[1])
		if !ok {
			if onSkip != nil {
				onSkip("malformed time", line)
			}
			continue
		}

		ts, ok := localToUTC(date, hh, mm, ss)
		if !ok {
			if onSkip != nil {
				onSkip("ambiguous or nonexistent local time", line)
			}
			continue
		}

		rows = append(rows, store.Message{
			Timestamp: ts,
			Offset:    offset,
			Channel:   store.DefaultChannel,
			Author:    m[2],
			Body:      m[3],
		})
	}
	return rows
}

func splitClock(s string) (hh, mm, ss int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var err error
	if hh, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if mm, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if ss, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return hh, mm, ss, true
}

// localToUTC interprets (date, hh:mm:ss) as wall-clock time in sourceZone and
// converts it to UTC, returning ok=false when the local time is ambiguous
// (DST fall-back overlap) or doesn't exist (DST spring-forward gap).
func localToUTC(date time.Time, hh, mm, ss int) (time.Time, bool) {
	y, mo, d := date.Date()
	t := time.Date(y, mo, d, hh, mm, ss, 0, sourceZone)

	// time.Date silently displaces nonexistent wall clocks to an instant in
	// the following zone; a mismatching round-trip means the requested time
	// never happened.
	if yy, mm2, dd := t.Date(); yy != y || mm2 != mo || dd != d {
		return time.Time{}, false
	}
	if t.Hour() != hh || t.Minute() != mm || t.Second() != ss {
		return time.Time{}, false
	}

	start, _ := t.ZoneBounds()
	if start.IsZero() {
		return t.UTC(), true
	}

	before := start.Add(-time.Nanosecond)
	_, beforeOffset := before.Zone()
	_, curOffset := t.Zone()
	if beforeOffset == curOffset {
		return t.UTC(), true
	}

	// The same wall clock, read under the offset in effect just before this
	// zone started, would land at altInstant. If that instant still falls in
	// the prior zone, the wall clock is ambiguous: two UTC instants produce it.
	altInstant := t.Add(time.Duration(curOffset-beforeOffset) * time.Second)
	if altInstant.Before(start) {
		return time.Time{}, false
	}

	return t.UTC(), true
}
