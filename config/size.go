package config

import (
	"encoding/json"

	"github.com/docker/go-units"
)

// SizeValue parses human sizes ("512MB", "1g") from flags and config files.
type SizeValue struct {
	Size int64 `arg:"" help:"size in bytes"`
}

func (s *SizeValue) UnmarshalText(text []byte) (err error) {
	s.Size, err = units.FromHumanSize(string(text))
	return
}

func (s *SizeValue) UnmarshalJSON(raw []byte) error {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return s.UnmarshalText([]byte(asString))
	}
	return json.Unmarshal(raw, &s.Size)
}

func (s SizeValue) String() string {
	return units.HumanSize(float64(s.Size))
}
