// Package timex contains time helpers shared by the config loaders.
package timex

import (
	"encoding/json"
	"errors"
	"time"
)

// Duration wraps time.Duration so JSON configs can use either Go duration
// strings ("1.5s", "200ms") or integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// RedemptionDay returns the number of whole UTC days since the Unix epoch.
func RedemptionDay(t time.Time) uint32 {
	return uint32(t.UTC().Unix() / 86400)
}

// StartOfDay returns the first instant of the given redemption day.
func StartOfDay(day uint32) time.Time {
	return time.Unix(int64(day)*86400, 0).UTC()
}
