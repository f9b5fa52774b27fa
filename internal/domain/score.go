package domain

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Score is the user's 1-5 rating of recall quality after viewing a card.
type Score int

const (
	Forgot  Score = iota + 1 // Could not recall.
	Hard                     // Recalled with significant difficulty.
	Medium                   // Recalled with some effort.
	Easy                     // Recalled easily.
	Perfect                  // Instant, effortless recall.
)

var (
	scoreNames  = [...]string{Forgot: "Forgot", Hard: "Hard", Medium: "Medium", Easy: "Easy", Perfect: "Perfect"}
	scoreByName = map[string]Score{
		"forgot":  Forgot,
		"hard":    Hard,
		"medium":  Medium,
		"easy":    Easy,
		"perfect": Perfect,
	}
)

var (
	_ fmt.Stringer             = Score(0)
	_ json.Marshaler           = Score(0)
	_ json.Unmarshaler         = (*Score)(nil)
	_ encoding.TextMarshaler   = Score(0)
	_ encoding.TextUnmarshaler = (*Score)(nil)
)

// Scores lists every valid score in ascending order.
func Scores() []Score {
	return []Score{Forgot, Hard, Medium, Easy, Perfect}
}

// IsValid reports whether s is within Forgot..Perfect.
func (s Score) IsValid() bool {
	return s >= Forgot && s <= Perfect
}

// String returns the label of the score, or "Score(n)" for invalid values.
func (s Score) String() string {
	if s.IsValid() {
		return scoreNames[s]
	}
	return fmt.Sprintf("Score(%d)", int(s))
}

// ParseScore accepts a number ("1".."5") or a case-insensitive label ("easy").
func ParseScore(text string) (Score, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		s := Score(n)
		if !s.IsValid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidScore, n)
		}
		return s, nil
	}
	s, ok := scoreByName[strings.ToLower(text)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, text)
	}
	return s, nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Score) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScore, int(s))
	}
	return []byte(scoreNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Score) UnmarshalText(text []byte) error {
	v, err := ParseScore(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalJSON encodes the score as its number, matching the 1-5 wire rating.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScore, int(s))
	}
	return []byte(strconv.Itoa(int(s))), nil
}

// UnmarshalJSON accepts either a number or a label string.
func (s *Score) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		v := Score(n)
		if !v.IsValid() {
			return fmt.Errorf("%w: %d", ErrInvalidScore, n)
		}
		*s = v
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidScore, data)
	}
	return s.UnmarshalText([]byte(str))
}
