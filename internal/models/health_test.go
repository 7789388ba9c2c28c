package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	// 22:30 UTC это уже следующий день в UTC+3
	ts := time.Date(2026, 3, 14, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, CalendarDay("2026-03-14"), DayOf(ts))
	assert.Equal(t, CalendarDay("2026-03-15"), DayOf(ts.In(loc)))
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, CalendarDay("2026-01-31"), day)

	_, err = ParseDay("31.01.2026")
	assert.Error(t, err)

	_, err = ParseDay("")
	assert.Error(t, err)
}

func TestSource_Authority(t *testing.T) {
	tests := []struct {
		in   Source
		want Source
	}{
		{SourcePhone, SourcePhone},
		{SourcePhoneFallback, SourcePhone},
		{SourceWatch, SourceWatch},
		{SourceWatchBackground, SourceWatch},
		{Source("tablet"), Source("tablet")},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Authority())
		})
	}
}

func TestSource_Valid(t *testing.T) {
	assert.True(t, SourcePhone.Valid())
	assert.True(t, SourceWatchBackground.Valid())
	assert.False(t, Source("").Valid())
	assert.False(t, Source("tablet").Valid())
}

func TestLiveHealthRecord_StepsFor(t *testing.T) {
	rec := &LiveHealthRecord{Steps: 4200, Date: "2026-05-01"}

	assert.Equal(t, uint64(4200), rec.StepsFor("2026-05-01"))
	// Вчерашний документ не показывается как сегодняшние шаги
	assert.Equal(t, uint64(0), rec.StepsFor("2026-05-02"))

	var empty *LiveHealthRecord
	assert.Equal(t, uint64(0), empty.StepsFor("2026-05-01"))
}

func TestLiveHealthPatch_Apply(t *testing.T) {
	rec := LiveHealthRecord{Steps: 100, HeartRate: 70, Source: SourcePhone, Date: "2026-05-01", Revision: 4}

	steps := uint64(150)
	src := SourceWatch
	patched := LiveHealthPatch{Steps: &steps, Source: &src}.Apply(rec)

	assert.Equal(t, uint64(150), patched.Steps)
	assert.Equal(t, SourceWatch, patched.Source)
	// Отсутствующие поля сохраняются
	assert.Equal(t, uint32(70), patched.HeartRate)
	assert.Equal(t, CalendarDay("2026-05-01"), patched.Date)
	assert.Equal(t, int64(4), patched.Revision)

	assert.True(t, LiveHealthPatch{}.Empty())
	assert.False(t, LiveHealthPatch{Steps: &steps}.Empty())
}
