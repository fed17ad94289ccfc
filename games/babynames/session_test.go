package babynames

import (
	"errors"
	"testing"
)

func TestSessionRound(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Juan,500
2010,M,Pedro,300
2010,M,Luis,100
`)
	s := NewSession(newTestGenerator(t, ds, DefaultGeneratorConfig()))

	if _, _, err := s.Answer("nothing", 0); !errors.Is(err, ErrNoActiveQuestion) {
		t.Fatalf("Answer before Next: err = %v, want ErrNoActiveQuestion", err)
	}

	q, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if cur, ok := s.Current(); !ok || cur.ID != q.ID {
		t.Fatalf("Current() = %+v, %v", cur, ok)
	}

	if _, _, err := s.Answer("stale", q.Answer()); !errors.Is(err, ErrStaleQuestion) {
		t.Fatalf("Answer with wrong id: err = %v, want ErrStaleQuestion", err)
	}
	if _, _, err := s.Answer(q.ID, 7); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("Answer with bad option: err = %v, want ErrInvalidOption", err)
	}

	answered, res, err := s.Answer(q.ID, q.Answer())
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answered.ID != q.ID || !res.Correct {
		t.Errorf("Answer = %+v, %+v", answered, res)
	}
	if want := (Score{Correct: 1, Total: 1}); s.Score() != want {
		t.Errorf("Score() = %+v, want %+v", s.Score(), want)
	}

	if _, _, err := s.Answer(q.ID, q.Answer()); !errors.Is(err, ErrNoActiveQuestion) {
		t.Errorf("second Answer: err = %v, want ErrNoActiveQuestion", err)
	}

	q, err = s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, res, err = s.Answer(q.ID, (q.Answer()+1)%optionCount); err != nil || res.Correct {
		t.Fatalf("wrong Answer = %+v, %v", res, err)
	}
	if want := (Score{Correct: 1, Total: 2}); s.Score() != want {
		t.Errorf("Score() = %+v, want %+v", s.Score(), want)
	}

	s.Restart()
	if s.Score() != (Score{}) {
		t.Errorf("Score() after Restart = %+v", s.Score())
	}
	if _, ok := s.Current(); ok {
		t.Error("Restart kept the current question")
	}
}

func TestSessionLatchesFatal(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Juan,500
`)
	s := NewSession(newTestGenerator(t, ds, GeneratorConfig{MaxAttempts: 2}))

	for range 3 {
		if _, err := s.Next(); !errors.Is(err, ErrNoQuestionAvailable) {
			t.Fatalf("Next: err = %v, want ErrNoQuestionAvailable", err)
		}
	}
	if !errors.Is(s.Err(), ErrNoQuestionAvailable) {
		t.Errorf("Err() = %v", s.Err())
	}

	s.Restart()
	if s.Err() != nil {
		t.Errorf("Err() after Restart = %v", s.Err())
	}
}
