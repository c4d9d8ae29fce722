package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLinesSkipsNonMatchingAndOldOffsets(t *testing.T) {
	raw := "not a message\n" +
		"[10:00:00] <alice> hello\n" +
		"[10:01:00] <bob> world\n" +
		"[garbled line\n" +
		"[10:02:00] <alice> trailing"

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := parseLines(raw, date, -1, nil)
	require.Len(t, rows, 3)
	assert.Equal(t, int32(1), rows[0].Offset)
	assert.Equal(t, "alice", rows[0].Author)
	assert.Equal(t, "hello", rows[0].Body)
	assert.Equal(t, int32(2), rows[1].Offset)
	assert.Equal(t, int32(4), rows[2].Offset)

	// cutOffset excludes everything at or below it.
	rows = parseLines(raw, date, 1, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(2), rows[0].Offset)
	assert.Equal(t, int32(4), rows[1].Offset)
}

func TestParseLinesDoesNotReportNonMatchingLines(t *testing.T) {
	raw := "garbage\n[10:00:00] <alice> hi"
	var skipped []string
	rows := parseLines(raw, time.Now(), -1, func(reason, line string) {
		skipped = append(skipped, line)
	})
	require.Len(t, rows, 1)
	assert.Empty(t, skipped) // the non-matching line is dropped silently, not reported as a skip
}

func TestLocalToUTCConvertsOrdinaryTime(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ts, ok := localToUTC(date, 12, 30, 0)
	require.True(t, ok)
	// EET is UTC+2 in winter, UTC+3 in summer (EEST); June is DST.
	assert.Equal(t, 9, ts.UTC().Hour())
}

func TestLocalToUTCWinterOffset(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	ts, ok := localToUTC(date, 12, 0, 0)
	require.True(t, ok)
	assert.Equal(t, 10, ts.UTC().Hour())
}

func TestLocalToUTCRejectsNonexistentSpringForward(t *testing.T) {
	// Europe/Kiev moves clocks from 02:59:59 to 04:00:00 on 2024-03-31;
	// every wall-clock time in the 03:00-03:59 gap never happened.
	date := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	for _, tc := range [][3]int{{3, 0, 0}, {3, 30, 0}, {3, 59, 59}} {
		_, ok := localToUTC(date, tc[0], tc[1], tc[2])
		assert.False(t, ok, "%02d:%02d:%02d should be rejected as nonexistent", tc[0], tc[1], tc[2])
	}
}

func TestLocalToUTCRejectsAmbiguousFallBack(t *testing.T) {
	// Europe/Kiev moves clocks from 03:59:59 back to 03:00:00 on 2024-10-27;
	// every wall-clock time in the 03:00-03:59 window occurs twice.
	date := time.Date(2024, 10, 27, 0, 0, 0, 0, time.UTC)
	for _, tc := range [][3]int{{3, 0, 0}, {3, 30, 0}, {3, 59, 59}} {
		_, ok := localToUTC(date, tc[0], tc[1], tc[2])
		assert.False(t, ok, "%02d:%02d:%02d should be rejected as ambiguous", tc[0], tc[1], tc[2])
	}
}

func TestSplitClock(t *testing.T) {
	hh, mm, ss, ok := splitClock("23:59:59")
	require.True(t, ok)
	assert.Equal(t, 23, hh)
	assert.Equal(t, 59, mm)
	assert.Equal(t, 59, ss)

	_, _, _, ok = splitClock("not-a-time")
	assert.False(t, ok)
}

func TestToValidUTF8Lossy(t *testing.T) {
	valid := []byte("hello")
	assert.Equal(t, "hello", toValidUTF8Lossy(valid))

	invalid := []byte{0x68, 0x69, 0xff, 0xfe}
	out := toValidUTF8Lossy(invalid)
	assert.Contains(t, out, "hi")
	assert.NotEqual(t, string(invalid), out)
}

func TestIngestDateBusyLockFailsFast(t *testing.T) {
	in := &Ingestor{}
	in.mu.Lock()
	defer in.mu.Unlock()

	_, err := in.IngestDate(context.Background(), time.Now(), -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImportRunning))
}

func TestCatchUpFromLatestBusyLockFailsFast(t *testing.T) {
	in := &Ingestor{}
	in.mu.Lock()
	defer in.mu.Unlock()

	_, err := in.CatchUpFromLatest(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImportRunning))
}
