package api

import (
	"fmt"
	"time"

	"github.com/iudanet/healthsync/internal/models"
)

// LiveData представляет документ users/{userId}/live_data на проводе
type LiveData struct {
	Source     string `json:"source"`      // phone | watch (и алиасы)
	Date       string `json:"date"`        // YYYY-MM-DD
	Steps      uint64 `json:"steps"`       // шаги за Date
	LastUpdate int64  `json:"last_update"` // unix epoch ms
	Revision   int64  `json:"revision"`    // ревизия, назначенная сервером
	HeartRate  uint32 `json:"heart_rate"`  // bpm, 0 - нет данных
}

// LiveDataUpdate частичное обновление документа.
// Отсутствующие (nil) поля сохраняют текущее значение.
type LiveDataUpdate struct {
	Steps      *uint64 `json:"steps,omitempty"`
	HeartRate  *uint32 `json:"heart_rate,omitempty"`
	Source     *string `json:"source,omitempty"`
	Date       *string `json:"date,omitempty"`
	LastUpdate *int64  `json:"last_update,omitempty"`
}

// Empty сообщает, что обновление не содержит ни одного поля
func (u LiveDataUpdate) Empty() bool {
	return u.Steps == nil && u.HeartRate == nil && u.Source == nil &&
		u.Date == nil && u.LastUpdate == nil
}

// Validate проверяет значения присутствующих полей
func (u LiveDataUpdate) Validate() error {
	if u.Empty() {
		return fmt.Errorf("update has no fields")
	}
	if u.Source != nil && !models.Source(*u.Source).Valid() {
		return fmt.Errorf("unknown source %q", *u.Source)
	}
	if u.Date != nil {
		if _, err := models.ParseDay(*u.Date); err != nil {
			return err
		}
	}
	if u.LastUpdate != nil && *u.LastUpdate < 0 {
		return fmt.Errorf("last_update must not be negative")
	}
	return nil
}

// FromRecord конвертирует доменную запись в формат провода
func FromRecord(rec models.LiveHealthRecord) LiveData {
	var lastUpdate int64
	if !rec.LastUpdate.IsZero() {
		lastUpdate = rec.LastUpdate.UnixMilli()
	}
	return LiveData{
		Steps:      rec.Steps,
		HeartRate:  rec.HeartRate,
		Source:     string(rec.Source),
		Date:       string(rec.Date),
		LastUpdate: lastUpdate,
		Revision:   rec.Revision,
	}
}

// Record конвертирует документ с провода в доменную запись
func (d LiveData) Record() models.LiveHealthRecord {
	var lastUpdate time.Time
	if d.LastUpdate > 0 {
		lastUpdate = time.UnixMilli(d.LastUpdate)
	}
	return models.LiveHealthRecord{
		Steps:      d.Steps,
		HeartRate:  d.HeartRate,
		Source:     models.Source(d.Source),
		Date:       models.CalendarDay(d.Date),
		LastUpdate: lastUpdate,
		Revision:   d.Revision,
	}
}

// UpdateFromSample строит частичное обновление из кандидата.
// HeartRate включается, только если он есть в сэмпле.
func UpdateFromSample(s models.CandidateHealthSample) LiveDataUpdate {
	steps := s.Steps
	source := string(s.Source)
	date := string(s.Date)
	lastUpdate := s.ObservedAt.UnixMilli()

	upd := LiveDataUpdate{
		Steps:      &steps,
		Source:     &source,
		Date:       &date,
		LastUpdate: &lastUpdate,
	}
	if s.HeartRate != nil {
		hr := *s.HeartRate
		upd.HeartRate = &hr
	}
	return upd
}

// HeartRateUpdate строит обновление только пульса (шаги не трогаются)
func HeartRateUpdate(s models.CandidateHealthSample) LiveDataUpdate {
	source := string(s.Source)
	lastUpdate := s.ObservedAt.UnixMilli()
	upd := LiveDataUpdate{
		Source:     &source,
		LastUpdate: &lastUpdate,
	}
	if s.HeartRate != nil {
		hr := *s.HeartRate
		upd.HeartRate = &hr
	}
	return upd
}

// Patch конвертирует обновление в доменный патч
func (u LiveDataUpdate) Patch() models.LiveHealthPatch {
	var p models.LiveHealthPatch
	if u.Steps != nil {
		v := *u.Steps
		p.Steps = &v
	}
	if u.HeartRate != nil {
		v := *u.HeartRate
		p.HeartRate = &v
	}
	if u.Source != nil {
		v := models.Source(*u.Source)
		p.Source = &v
	}
	if u.Date != nil {
		v := models.CalendarDay(*u.Date)
		p.Date = &v
	}
	if u.LastUpdate != nil {
		v := time.UnixMilli(*u.LastUpdate)
		p.LastUpdate = &v
	}
	return p
}

// HeartRatePoint точка истории пульса
type HeartRatePoint struct {
	Source     string `json:"source"`
	RecordedAt int64  `json:"recorded_at"` // unix epoch ms
	HeartRate  uint32 `json:"heart_rate"`
}

// HeartRateHistory ответ GET /api/v1/users/{userID}/heart_rate
type HeartRateHistory struct {
	Samples []HeartRatePoint `json:"samples"`
}

// FromHeartRateSamples конвертирует историю пульса в формат провода
func FromHeartRateSamples(samples []models.HeartRateSample) HeartRateHistory {
	out := HeartRateHistory{Samples: make([]HeartRatePoint, 0, len(samples))}
	for _, s := range samples {
		out.Samples = append(out.Samples, HeartRatePoint{
			HeartRate:  s.HeartRate,
			Source:     string(s.Source),
			RecordedAt: s.RecordedAt.UnixMilli(),
		})
	}
	return out
}
