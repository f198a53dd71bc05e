package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{From: day(2024, 1, 1), To: day(2024, 1, 10)}
	assert.True(t, r.Contains(day(2024, 1, 1)))
	assert.True(t, r.Contains(day(2024, 1, 10)))
	assert.False(t, r.Contains(day(2024, 1, 11)))
	assert.False(t, r.Contains(day(2023, 12, 31)))
}

func TestDateRangeContains_OpenBounds(t *testing.T) {
	upTo := DateRange{To: day(2024, 1, 10)}
	assert.True(t, upTo.Contains(day(1990, 1, 1)))
	assert.False(t, upTo.Contains(day(2024, 1, 11)))

	all := DateRange{}
	assert.True(t, all.Contains(day(2100, 1, 1)))
}
