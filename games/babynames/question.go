/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package babynames

import (
	"math/rand/v2"
	"strconv"
)

type Kind string

const (
	// KindPopularName asks which name was most popular for a year and gender.
	KindPopularName Kind = "popular_name"
	// KindPopularYear asks in which year a name was most popular.
	KindPopularYear Kind = "popular_year"
)

func (k Kind) other() Kind {
	if k == KindPopularName {
		return KindPopularYear
	}
	return KindPopularName
}

const optionCount = 3

// Question is created fresh for every round and never mutated afterwards.
//
// For KindPopularName, Year and Gender are the prompt parameters and options
// are compared by name. For KindPopularYear, Name is the prompt parameter
// (Gender is set only when the generator samples it) and options are compared
// by year.
type Question struct {
	ID      string
	Kind    Kind
	Year    int
	Gender  Gender
	Name    string
	Correct Record
	Options [optionCount]Record
}

// Matches reports whether r answers q.
func (q Question) Matches(r Record) bool {
	if q.Kind == KindPopularYear {
		return r.Year == q.Correct.Year
	}
	return r.Name == q.Correct.Name
}

// Answer returns the index of the correct option.
func (q Question) Answer() int {
	for i, o := range q.Options {
		if q.Matches(o) {
			return i
		}
	}
	return -1
}

// Labels returns the option text in display order: names or years depending
// on the kind.
func (q Question) Labels() []string {
	labels := make([]string, 0, optionCount)
	for _, o := range q.Options {
		if q.Kind == KindPopularYear {
			labels = append(labels, strconv.Itoa(o.Year))
		} else {
			labels = append(labels, o.Name)
		}
	}
	return labels
}

// Counts returns the birth count behind each option, in display order.
func (q Question) Counts() []int {
	counts := make([]int, 0, optionCount)
	for _, o := range q.Options {
		counts = append(counts, o.Count)
	}
	return counts
}

// shuffled returns a uniformly permuted copy of options.
func shuffled(rng *rand.Rand, options [optionCount]Record) [optionCount]Record {
	out := options
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
