package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_FallsBackToDefault(t *testing.T) {
	loc := Location("Not/AZone")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, loc)
	_, offset := now.Zone()
	assert.Equal(t, 5*3600+30*60, offset)
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("Asia/Kolkata", "2026-03-10", "09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC), got.UTC())

	_, err = ParseDateTime("Asia/Kolkata", "2026-03-10", "9h30")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("UTC", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Day())
	assert.Equal(t, 0, got.Hour())
}
