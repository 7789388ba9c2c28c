package models

import (
	"fmt"
	"time"
)

// DayLayout формат календарного дня в локальном хранилище и в live_data
const DayLayout = "2006-01-02"

// CalendarDay представляет календарный день в формате YYYY-MM-DD
// в локальной временной зоне агента.
type CalendarDay string

// DayOf возвращает календарный день для момента времени t в его временной зоне
func DayOf(t time.Time) CalendarDay {
	return CalendarDay(t.Format(DayLayout))
}

// ParseDay проверяет строку и возвращает CalendarDay
func ParseDay(s string) (CalendarDay, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", fmt.Errorf("invalid calendar day %q: %w", s, err)
	}
	return CalendarDay(s), nil
}

// String implements fmt.Stringer
func (d CalendarDay) String() string {
	return string(d)
}

// Source идентифицирует источник данных о шагах/пульсе.
type Source string

const (
	SourcePhone Source = "phone" // встроенный шагомер телефона
	SourceWatch Source = "watch" // сопряжённое носимое устройство

	// Алиасы, которые встречаются в live_data от старых версий клиентов
	SourceWatchBackground Source = "watch_background"
	SourcePhoneFallback   Source = "phone_fallback"
)

// Authority сворачивает алиасы до одного из двух авторитетных источников.
// Неизвестные значения возвращаются как есть.
func (s Source) Authority() Source {
	switch s {
	case SourceWatch, SourceWatchBackground:
		return SourceWatch
	case SourcePhone, SourcePhoneFallback:
		return SourcePhone
	default:
		return s
	}
}

// Valid сообщает, является ли источник известным значением
func (s Source) Valid() bool {
	switch s {
	case SourcePhone, SourceWatch, SourceWatchBackground, SourcePhoneFallback:
		return true
	}
	return false
}

// RawSensorReading показание аппаратного счётчика шагов.
// CumulativeCount монотонно растёт с момента загрузки устройства
// и сбрасывается к нулю при перезагрузке.
type RawSensorReading struct {
	Timestamp       time.Time
	CumulativeCount uint64
}

// DailyOffsetRecord хранит значение счётчика, соответствующее нулю шагов за Date.
type DailyOffsetRecord struct {
	Date   CalendarDay `json:"date"`
	Offset uint64      `json:"offset"`
}

// CandidateHealthSample кандидат на запись в общий live_data документ.
// HeartRate == nil означает отсутствие пульса (например, сэмпл телефона).
// HeartRateOnly означает, что шагов в сэмпле нет и Steps игнорируется.
type CandidateHealthSample struct {
	ObservedAt    time.Time
	HeartRate     *uint32
	Source        Source
	Date          CalendarDay
	Steps         uint64
	HeartRateOnly bool
}

// LiveHealthRecord общий документ users/{userId}/live_data.
// Revision назначается сервером и растёт с каждой записью документа.
type LiveHealthRecord struct {
	LastUpdate time.Time   `json:"last_update"`
	Source     Source      `json:"source"`
	Date       CalendarDay `json:"date"`
	Steps      uint64      `json:"steps"`
	Revision   int64       `json:"revision"`
	HeartRate  uint32      `json:"heart_rate"`
}

// StepsFor возвращает шаги документа для дня today.
// Документ за другой день считается устаревшим и показывает 0.
func (r *LiveHealthRecord) StepsFor(today CalendarDay) uint64 {
	if r == nil || r.Date != today {
		return 0
	}
	return r.Steps
}

// ConnectionState результат проверки подключения носимого устройства.
// Present и PairedActive независимы друг от друга.
type ConnectionState struct {
	Present      bool `json:"present"`
	PairedActive bool `json:"paired_active"`
}

// PairingSession эфемерная сессия сопряжения с конкретным узлом.
type PairingSession struct {
	CreatedAt time.Time
	ID        string
	NodeID    string
}

// Uint32 возвращает указатель на v (удобно для HeartRate)
func Uint32(v uint32) *uint32 {
	return &v
}

// Node подключённое носимое устройство (узел канала сообщений)
type Node struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// LiveHealthPatch частичное обновление LiveHealthRecord.
// nil поля сохраняют текущее значение документа.
type LiveHealthPatch struct {
	Steps      *uint64
	HeartRate  *uint32
	Source     *Source
	Date       *CalendarDay
	LastUpdate *time.Time
}

// Empty сообщает, что патч не содержит ни одного поля
func (p LiveHealthPatch) Empty() bool {
	return p.Steps == nil && p.HeartRate == nil && p.Source == nil &&
		p.Date == nil && p.LastUpdate == nil
}

// Apply применяет патч к записи (last-writer-wins по каждому полю).
// Revision не меняется: её назначает хранилище.
func (p LiveHealthPatch) Apply(rec LiveHealthRecord) LiveHealthRecord {
	if p.Steps != nil {
		rec.Steps = *p.Steps
	}
	if p.HeartRate != nil {
		rec.HeartRate = *p.HeartRate
	}
	if p.Source != nil {
		rec.Source = *p.Source
	}
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.LastUpdate != nil {
		rec.LastUpdate = *p.LastUpdate
	}
	return rec
}

// HeartRateSample точка истории пульса на сервере
type HeartRateSample struct {
	RecordedAt time.Time `json:"recorded_at"`
	Source     Source    `json:"source"`
	HeartRate  uint32    `json:"heart_rate"`
}
