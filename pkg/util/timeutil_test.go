package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayKeyUsesUTCCalendarDay(t *testing.T) {
	offset := time.FixedZone("UTC-5", -5*60*60)
	// 23:30 local on March 1 is already March 2 in UTC.
	local := time.Date(2026, 3, 1, 23, 30, 0, 0, offset)
	require.Equal(t, "2026-03-02", DayKey(local))

	ts := time.Date(2026, 3, 15, 17, 45, 12, 999, time.UTC)
	require.Equal(t, "2026-03-15", DayKey(ts))
}
