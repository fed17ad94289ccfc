package babynames

import (
	"errors"
	"fmt"
)

var ErrInvalidOption = errors.New("invalid option")

// Score counts answered questions. Both counters only grow until reset.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Result is the outcome of a single answer.
type Result struct {
	Correct  bool  `json:"correct"`
	Selected int   `json:"selected"`
	Answer   int   `json:"answer"`
	Score    Score `json:"score"`
}

// Record scores the option at index selected against q. Every call counts,
// including repeated calls for the same question.
func (s *Score) Record(q Question, selected int) (Result, error) {
	if selected < 0 || selected >= len(q.Options) {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidOption, selected)
	}

	correct := q.Matches(q.Options[selected])

	s.Total++
	if correct {
		s.Correct++
	}

	return Result{
		Correct:  correct,
		Selected: selected,
		Answer:   q.Answer(),
		Score:    *s,
	}, nil
}
