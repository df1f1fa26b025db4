package http

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimDaily(t *testing.T) {
	daily := map[string]int64{}
	for day := 1; day <= 20; day++ {
		daily[fmt.Sprintf("2026-08-%02d", day)] = int64(day)
	}

	trimmed := trimDaily(daily, 14)
	assert.Len(t, trimmed, 14)
	assert.NotContains(t, trimmed, "2026-08-06", "oldest days are dropped")
	assert.Contains(t, trimmed, "2026-08-20")
	assert.Contains(t, trimmed, "2026-08-07")
}

func TestTrimDaily_SmallSeriesUntouched(t *testing.T) {
	daily := map[string]int64{"2026-08-28": 3, "2026-08-29": 1}
	assert.Equal(t, daily, trimDaily(daily, 14))
}
