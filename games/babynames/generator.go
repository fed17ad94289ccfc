/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package babynames

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrGenerationExhausted means a sample did not produce enough candidates.
	// The generator recovers from it by resampling or switching kinds.
	ErrGenerationExhausted = errors.New("not enough candidates for question")
	// ErrNoQuestionAvailable means neither kind of question could be built;
	// the dataset is too sparse to play.
	ErrNoQuestionAvailable = errors.New("no question available")
)

// GeneratorConfig holds the tunable thresholds for question generation.
type GeneratorConfig struct {
	// MaxAttempts is how many samples are tried per kind before falling back.
	MaxAttempts int
	// CloseRatio marks a distractor as close when its count is at least
	// (1-CloseRatio) of the correct count. Zero disables the check.
	CloseRatio float64
	// CloseDelta marks a distractor as close when its count is within
	// CloseDelta of the correct count. Zero disables the check.
	CloseDelta int
	// YearByGender also samples a gender for popular-year questions.
	YearByGender bool
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxAttempts: 15,
		CloseRatio:  0.5,
	}
}

func (c GeneratorConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.CloseRatio < 0 || c.CloseRatio > 1 {
		return fmt.Errorf("close ratio must be between 0 and 1 inclusive, got %v", c.CloseRatio)
	}
	if c.CloseDelta < 0 {
		return fmt.Errorf("close delta must not be negative, got %d", c.CloseDelta)
	}
	return nil
}

// Generator builds random questions from a dataset. It is not safe for
// concurrent use; each session owns its own.
type Generator struct {
	dataset *Dataset
	cfg     GeneratorConfig
	rng     *rand.Rand
	logger  *zap.Logger
}

func NewGenerator(ds *Dataset, cfg GeneratorConfig, rng *rand.Rand, logger *zap.Logger) *Generator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultGeneratorConfig().MaxAttempts
	}
	if rng == nil {
		rng = NewRand()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		dataset: ds,
		cfg:     cfg,
		rng:     rng,
		logger:  logger,
	}
}

// NewRand returns a random source seeded from crypto/rand.
func NewRand() *rand.Rand {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}

// Next returns a question of a randomly chosen kind. If that kind cannot be
// built within MaxAttempts samples, the other kind is tried; if both fail,
// ErrNoQuestionAvailable is returned.
func (g *Generator) Next() (Question, error) {
	if g.dataset == nil || g.dataset.Len() == 0 {
		return Question{}, ErrNoQuestionAvailable
	}

	first := KindPopularName
	if g.rng.IntN(2) == 1 {
		first = KindPopularYear
	}

	for _, kind := range []Kind{first, first.other()} {
		q, err := g.attempt(kind)
		if err == nil {
			return q, nil
		}

		g.logger.Debug("falling back to other question kind", zap.Error(err))
	}

	g.logger.Warn("no question could be generated",
		zap.Int("records", g.dataset.Len()),
		zap.Int("max_attempts", g.cfg.MaxAttempts))

	return Question{}, ErrNoQuestionAvailable
}

func (g *Generator) attempt(kind Kind) (Question, error) {
	for range g.cfg.MaxAttempts {
		var (
			q   Question
			err error
		)

		switch kind {
		case KindPopularName:
			year := g.dataset.years[g.rng.IntN(len(g.dataset.years))]
			gender := genders[g.rng.IntN(len(genders))]
			q, err = g.PopularName(year, gender)
		case KindPopularYear:
			name := g.dataset.names[g.rng.IntN(len(g.dataset.names))]
			var gender Gender
			if g.cfg.YearByGender {
				gender = genders[g.rng.IntN(len(genders))]
			}
			q, err = g.PopularYear(name, gender)
		}

		if err == nil {
			return q, nil
		}
	}

	return Question{}, fmt.Errorf("%s after %d attempts: %w", kind, g.cfg.MaxAttempts, ErrGenerationExhausted)
}

// PopularName builds a question asking which name was most popular for
// gender in year.
func (g *Generator) PopularName(year int, gender Gender) (Question, error) {
	correct, rest, n := splitPool(g.dataset.filter(func(r Record) bool {
		return r.Year == year && r.Gender == gender
	}), func(r Record) string { return r.Name })

	if n < optionCount {
		return Question{}, fmt.Errorf("%d/%s has %d names: %w", year, gender, n, ErrGenerationExhausted)
	}

	return g.build(Question{
		Kind:   KindPopularName,
		Year:   year,
		Gender: gender,
	}, correct, rest), nil
}

// PopularYear builds a question asking in which year name was most popular.
// An empty gender considers records of both genders.
func (g *Generator) PopularYear(name string, gender Gender) (Question, error) {
	correct, rest, n := splitPool(g.dataset.filter(func(r Record) bool {
		return r.Name == name && (gender == "" || r.Gender == gender)
	}), func(r Record) int { return r.Year })

	if n < optionCount {
		return Question{}, fmt.Errorf("%q has %d years: %w", name, n, ErrGenerationExhausted)
	}

	return g.build(Question{
		Kind:   KindPopularYear,
		Name:   name,
		Gender: gender,
	}, correct, rest), nil
}

func (g *Generator) build(q Question, correct Record, rest []Record) Question {
	d := g.distractors(correct, rest)

	q.ID = uuid.NewString()
	q.Correct = correct
	q.Options = shuffled(g.rng, [optionCount]Record{correct, d[0], d[1]})

	return q
}

// distractors picks two records from rest, preferring those whose count is
// close to the correct one.
func (g *Generator) distractors(correct Record, rest []Record) []Record {
	var near, far []Record
	for _, r := range rest {
		if g.isClose(correct, r) {
			near = append(near, r)
		} else {
			far = append(far, r)
		}
	}

	g.rng.Shuffle(len(near), func(i, j int) { near[i], near[j] = near[j], near[i] })
	g.rng.Shuffle(len(far), func(i, j int) { far[i], far[j] = far[j], far[i] })

	return append(near, far...)[:optionCount-1]
}

func (g *Generator) isClose(correct, r Record) bool {
	diff := correct.Count - r.Count
	if g.cfg.CloseDelta > 0 && diff <= g.cfg.CloseDelta {
		return true
	}
	if g.cfg.CloseRatio > 0 && float64(r.Count) >= float64(correct.Count)*(1-g.cfg.CloseRatio) {
		return true
	}
	return false
}

// splitPool picks the correct record from pool, then collapses the remaining
// records to one per key, leaving out the correct record's key. n is the
// number of distinct keys in pool.
func splitPool[K comparable](pool []Record, key func(Record) K) (correct Record, rest []Record, n int) {
	if len(pool) == 0 {
		return Record{}, nil, 0
	}

	correct, rest = splitMax(pool)

	k := key(correct)
	rest = slices.DeleteFunc(rest, func(r Record) bool { return key(r) == k })
	rest = uniqueBy(rest, key)

	return correct, rest, len(rest) + 1
}

// uniqueBy keeps one record per key: the highest count, first seen on ties.
// Records stay at the position of the key's first appearance.
func uniqueBy[K comparable](records []Record, key func(Record) K) []Record {
	index := make(map[K]int, len(records))
	out := make([]Record, 0, len(records))

	for _, r := range records {
		k := key(r)
		if i, ok := index[k]; ok {
			if r.Count > out[i].Count {
				out[i] = r
			}
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}

	return out
}

// splitMax returns the highest-count record (first on ties) and the others,
// in their original order.
func splitMax(pool []Record) (Record, []Record) {
	best := 0
	for i, r := range pool {
		if r.Count > pool[best].Count {
			best = i
		}
	}

	rest := make([]Record, 0, len(pool)-1)
	rest = append(rest, pool[:best]...)
	rest = append(rest, pool[best+1:]...)

	return pool[best], rest
}
