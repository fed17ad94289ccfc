/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package babynames

import (
	"errors"
)

var (
	ErrNoActiveQuestion = errors.New("no active question")
	ErrStaleQuestion    = errors.New("question is no longer active")
)

// Session is the state of one game: the question being shown, the running
// score, and whether the game has hit a fatal condition. It is owned by a
// single caller and is not safe for concurrent use.
type Session struct {
	gen     *Generator
	score   Score
	current *Question
	fatal   error
}

func NewSession(gen *Generator) *Session {
	return &Session{gen: gen}
}

// Next replaces the current question with a new one. Once the generator has
// reported ErrNoQuestionAvailable, every later call returns it until Restart.
func (s *Session) Next() (Question, error) {
	if s.fatal != nil {
		return Question{}, s.fatal
	}

	q, err := s.gen.Next()
	if err != nil {
		s.current = nil
		if errors.Is(err, ErrNoQuestionAvailable) {
			s.fatal = err
		}
		return Question{}, err
	}

	s.current = &q

	return q, nil
}

// Answer scores the current question and discards it. questionID must match
// the current question, so late answers to an earlier question are rejected.
func (s *Session) Answer(questionID string, selected int) (Question, Result, error) {
	if s.current == nil {
		return Question{}, Result{}, ErrNoActiveQuestion
	}
	if questionID != s.current.ID {
		return Question{}, Result{}, ErrStaleQuestion
	}

	q := *s.current

	res, err := s.score.Record(q, selected)
	if err != nil {
		return Question{}, Result{}, err
	}

	s.current = nil

	return q, res, nil
}

// Current returns the question awaiting an answer, if any.
func (s *Session) Current() (Question, bool) {
	if s.current == nil {
		return Question{}, false
	}
	return *s.current, true
}

func (s *Session) Score() Score {
	return s.score
}

// Err returns the fatal condition, if the session has hit one.
func (s *Session) Err() error {
	return s.fatal
}

// Restart zeroes the score and forgets the current question and any fatal
// condition.
func (s *Session) Restart() {
	s.score = Score{}
	s.current = nil
	s.fatal = nil
}
