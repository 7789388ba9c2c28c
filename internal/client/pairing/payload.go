package pairing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrParse некорректный payload входящего сообщения
var ErrParse = errors.New("malformed payload")

const (
	// максимальный правдоподобный пульс, bpm
	maxHeartRate = 300
	// шагов за сутки больше не бывает; значение также влезает в INTEGER sqlite
	maxDailySteps = 1_000_000
)

// errNull явный null в необязательном поле
var errNull = errors.New("null value")

// PairPayload payload пути pair в обе стороны
type PairPayload struct {
	UserID string `json:"userId"`
}

// HealthReading разобранный payload health-data
type HealthReading struct {
	Steps     *uint64
	HeartRate *uint32
	// Timestamp unix ms от часов, 0 - не передан
	Timestamp int64
}

type healthPayload struct {
	Steps     json.RawMessage `json:"steps"`
	HeartRate json.RawMessage `json:"heart_rate"`
	Value     json.RawMessage `json:"value"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
}

// ParseHealthData разбирает оба формата часов:
// {"steps": 1200, "heart_rate": 72} и {"type": "heart_rate", "value": "72.0"}.
func ParseHealthData(data []byte) (HealthReading, error) {
	var p healthPayload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return HealthReading{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	reading := HealthReading{Timestamp: p.Timestamp}

	if len(p.Steps) > 0 {
		steps, err := parseSteps(p.Steps)
		if err != nil {
			return HealthReading{}, err
		}
		reading.Steps = steps
	}
	if len(p.HeartRate) > 0 {
		hr, err := parseHeartRate(p.HeartRate)
		if err != nil {
			return HealthReading{}, err
		}
		reading.HeartRate = hr
	}

	// Формат {type, value}
	switch p.Type {
	case "heart_rate":
		hr, err := parseHeartRate(p.Value)
		if err != nil {
			return HealthReading{}, err
		}
		reading.HeartRate = hr
	case "steps":
		steps, err := parseSteps(p.Value)
		if err != nil {
			return HealthReading{}, err
		}
		reading.Steps = steps
	}

	if reading.Steps == nil && reading.HeartRate == nil {
		return HealthReading{}, fmt.Errorf("%w: no steps or heart_rate", ErrParse)
	}

	return reading, nil
}

// parseSteps принимает только целое число шагов в пределах суток.
// null означает, что поле не передано.
func parseSteps(raw json.RawMessage) (*uint64, error) {
	v, err := parseNumber(raw)
	if errors.Is(err, errNull) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: steps: %w", ErrParse, err)
	}
	if v != math.Trunc(v) {
		return nil, fmt.Errorf("%w: steps %v is not an integer", ErrParse, v)
	}
	if v > maxDailySteps {
		return nil, fmt.Errorf("%w: steps %v out of range", ErrParse, v)
	}
	steps := uint64(v)
	return &steps, nil
}

func parseHeartRate(raw json.RawMessage) (*uint32, error) {
	v, err := parseNumber(raw)
	if errors.Is(err, errNull) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: heart_rate: %w", ErrParse, err)
	}
	if v > maxHeartRate {
		return nil, fmt.Errorf("%w: heart_rate %v out of range", ErrParse, v)
	}
	// 0 bpm - датчик ещё не получил значение
	if v < 1 {
		return nil, nil
	}
	hr := uint32(math.Round(v))
	return &hr, nil
}

// parseNumber принимает число или строку с числом ("72.0")
func parseNumber(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return 0, errNull
	}
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(str)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return v, nil
}

// ParsePair разбирает payload pair
func ParsePair(data []byte) (string, error) {
	var p PairPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("%w: %w", ErrParse, err)
	}
	if p.UserID == "" {
		return "", fmt.Errorf("%w: empty userId", ErrParse)
	}
	return p.UserID, nil
}
