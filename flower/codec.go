package flower

import (
	"encoding/json"
	"fmt"

	"github.com/pthm-cable/bloom/neural"
)

type envelope struct {
	Flower *Flower `json:"Flower"`
}

// Encode returns the exchange-format text of f.
func Encode(f *Flower) (string, error) {
	data, err := json.Marshal(envelope{Flower: f})
	if err != nil {
		return "", fmt.Errorf("encoding flower: %w", err)
	}
	return string(data), nil
}

// Decode parses exchange-format text and validates the result.
func Decode(text string) (*Flower, error) {
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, fmt.Errorf("%w: %w", neural.ErrMalformed, err)
	}
	if env.Flower == nil {
		return nil, fmt.Errorf("%w: missing Flower object", neural.ErrMalformed)
	}
	if err := env.Flower.Validate(); err != nil {
		return nil, err
	}
	return env.Flower, nil
}
