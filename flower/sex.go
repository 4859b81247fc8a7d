package flower

import "fmt"

// Sex selects the reproductive organs of a flower.
type Sex uint8

const (
	Both Sex = iota
	Male
	Female
)

func (s Sex) String() string {
	switch s {
	case Male:
		return "male"
	case Female:
		return "female"
	case Both:
		return "both"
	}
	return fmt.Sprintf("sex(%d)", uint8(s))
}

// HasStamens reports whether the flower carries male organs.
func (s Sex) HasStamens() bool { return s == Male || s == Both }

// HasPistil reports whether the flower carries female organs.
func (s Sex) HasPistil() bool { return s == Female || s == Both }

// ParseSex parses "male", "female" or "both".
func ParseSex(text string) (Sex, error) {
	switch text {
	case "male":
		return Male, nil
	case "female":
		return Female, nil
	case "both":
		return Both, nil
	}
	return Both, fmt.Errorf("%w: unknown sex %q", ErrInvalidParams, text)
}

// MarshalText implements encoding.TextMarshaler.
func (s Sex) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sex) UnmarshalText(text []byte) error {
	v, err := ParseSex(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
