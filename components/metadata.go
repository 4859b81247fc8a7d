package components

import (
	"fmt"

	"github.com/pthm-cable/bloom/stats"
)

// FieldDescriptor describes a trait for UI display.
type FieldDescriptor struct {
	ID       string  // Unique identifier
	Label    string  // Display name
	Format   string  // Printf format (e.g., "%.2f")
	Min      float32 // Minimum value (for bars)
	Max      float32 // Maximum value (for bars)
	Centered bool    // True for centered bar display
	IsBar    bool    // True to render as progress bar
	Group    string  // Logical grouping
}

// TraitFieldDescriptors returns metadata for the stats of a flower.
func TraitFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "health", Label: "Health", Format: "%.0f", Min: 0, Max: 100, IsBar: true, Group: "vital"},
		{ID: "stamina", Label: "Stamina", Format: "%.0f", Min: 0, Max: 100, IsBar: true, Group: "vital"},
		{ID: "min_temp", Label: "Min Temp", Format: "%.0f", Min: 0, Max: 50, Group: "climate"},
		{ID: "max_temp", Label: "Max Temp", Format: "%.0f", Min: 0, Max: 50, Group: "climate"},
		{ID: "maturation", Label: "Maturation", Format: "%.0f", Min: 0, Max: 100, IsBar: true, Group: "vital"},
		{ID: "toxicity", Label: "Toxicity", Format: "%.0f", Min: -100, Max: 100, Centered: true, IsBar: true, Group: "vital"},
		{ID: "vitality", Label: "Vitality", Format: "%.0f", Min: -100, Max: 100, Centered: true, IsBar: true, Group: "effects"},
		{ID: "agility", Label: "Agility", Format: "%.0f", Min: -100, Max: 100, Centered: true, IsBar: true, Group: "effects"},
		{ID: "intelligence", Label: "Intelligence", Format: "%.0f", Min: -100, Max: 100, Centered: true, IsBar: true, Group: "effects"},
		{ID: "strength", Label: "Strength", Format: "%.0f", Min: -100, Max: 100, Centered: true, IsBar: true, Group: "effects"},
		{ID: "luck", Label: "Luck", Format: "%.0f", Min: -100, Max: 100, Centered: true, IsBar: true, Group: "effects"},
	}
}

// TraitValue returns the value a descriptor refers to.
func TraitValue(s stats.Stats, id string) (float64, error) {
	switch id {
	case "health":
		return float64(s.Health), nil
	case "stamina":
		return float64(s.Stamina), nil
	case "min_temp":
		return float64(s.MinTemperature), nil
	case "max_temp":
		return float64(s.MaxTemperature), nil
	case "maturation":
		return float64(s.MaturationPeriod), nil
	case "toxicity":
		return s.ToxicityRate, nil
	case "vitality":
		return s.Effects.Vitality, nil
	case "agility":
		return s.Effects.Agility, nil
	case "intelligence":
		return s.Effects.Intelligence, nil
	case "strength":
		return s.Effects.Strength, nil
	case "luck":
		return s.Effects.Luck, nil
	}
	return 0, fmt.Errorf("unknown trait %q", id)
}
