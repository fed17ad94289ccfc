package babynames

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestGenerator(t *testing.T, ds *Dataset, cfg GeneratorConfig) *Generator {
	t.Helper()

	return NewGenerator(ds, cfg, rand.New(rand.NewPCG(1, 2)), zaptest.NewLogger(t))
}

func optionNames(q Question) []string {
	var out []string
	for _, o := range q.Options {
		out = append(out, o.Name)
	}
	return out
}

func optionYears(q Question) []int {
	var out []int
	for _, o := range q.Options {
		out = append(out, o.Year)
	}
	return out
}

func TestPopularName(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Juan,500
2010,M,Pedro,300
2010,M,Luis,100
2010,F,Ana,900
`)
	g := newTestGenerator(t, ds, DefaultGeneratorConfig())

	q, err := g.PopularName(2010, Male)
	if err != nil {
		t.Fatalf("PopularName: %v", err)
	}

	if q.Kind != KindPopularName || q.Year != 2010 || q.Gender != Male {
		t.Errorf("prompt = %s %d %s", q.Kind, q.Year, q.Gender)
	}
	if q.Correct.Name != "Juan" || q.Correct.Count != 500 {
		t.Errorf("correct = %+v, want Juan/500", q.Correct)
	}

	names := optionNames(q)
	slices.Sort(names)
	if want := []string{"Juan", "Luis", "Pedro"}; !slices.Equal(names, want) {
		t.Errorf("options = %v, want %v", names, want)
	}

	if q.ID == "" {
		t.Error("question has no id")
	}
	if got := q.Labels()[q.Answer()]; got != "Juan" {
		t.Errorf("label at answer index = %q, want Juan", got)
	}
}

func TestPopularYear(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,F,Ana,200
2015,F,Ana,500
2020,F,Ana,100
2015,M,Juan,700
`)
	g := newTestGenerator(t, ds, DefaultGeneratorConfig())

	q, err := g.PopularYear("Ana", "")
	if err != nil {
		t.Fatalf("PopularYear: %v", err)
	}

	if q.Kind != KindPopularYear || q.Name != "Ana" {
		t.Errorf("prompt = %s %q", q.Kind, q.Name)
	}
	if q.Correct.Year != 2015 {
		t.Errorf("correct year = %d, want 2015", q.Correct.Year)
	}

	years := optionYears(q)
	slices.Sort(years)
	if want := []int{2010, 2015, 2020}; !slices.Equal(years, want) {
		t.Errorf("options = %v, want %v", years, want)
	}
	if got := q.Labels()[q.Answer()]; got != "2015" {
		t.Errorf("label at answer index = %q, want 2015", got)
	}
}

func TestCorrectTieBreaksOnFirstRecord(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Benjamín,100
2010,M,Vicente,100
2010,M,Martín,50
`)
	g := newTestGenerator(t, ds, DefaultGeneratorConfig())

	for range 20 {
		q, err := g.PopularName(2010, Male)
		if err != nil {
			t.Fatalf("PopularName: %v", err)
		}
		if q.Correct.Name != "Benjamín" {
			t.Fatalf("correct = %q, want Benjamín", q.Correct.Name)
		}
	}
}

func TestCorrectTieBreaksOnFirstRecordWithRepeatedKeys(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Juan,5
2010,M,Pedro,600
2010,M,Luis,100
2010,M,Juan,600
2010,F,Ana,100
2015,F,Ana,500
2020,F,Ana,50
2010,M,Ana,500
`)
	g := newTestGenerator(t, ds, DefaultGeneratorConfig())

	for range 20 {
		q, err := g.PopularName(2010, Male)
		if err != nil {
			t.Fatalf("PopularName: %v", err)
		}
		if q.Correct.Name != "Pedro" {
			t.Fatalf("correct = %+v, want Pedro", q.Correct)
		}

		names := optionNames(q)
		slices.Sort(names)
		// Juan and Ana are within half of Pedro's count, Luis is not.
		if !slices.Equal(names, []string{"Ana", "Juan", "Pedro"}) {
			t.Fatalf("options = %v, want Ana, Juan and Pedro", names)
		}

		q, err = g.PopularYear("Ana", "")
		if err != nil {
			t.Fatalf("PopularYear: %v", err)
		}
		if q.Correct.Year != 2015 {
			t.Fatalf("correct = %+v, want 2015", q.Correct)
		}

		years := optionYears(q)
		slices.Sort(years)
		if !slices.Equal(years, []int{2010, 2015, 2020}) {
			t.Fatalf("options = %v, want 2010, 2015 and 2020", years)
		}
	}
}

func TestPoolTooSmall(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Juan,500
2010,M,Juan,20
2010,M,Pedro,300
2011,F,Ana,5
2012,F,Ana,6
2012,M,Ana,9
`)
	g := newTestGenerator(t, ds, DefaultGeneratorConfig())

	if _, err := g.PopularName(2010, Male); !errors.Is(err, ErrGenerationExhausted) {
		t.Errorf("PopularName with duplicate names: err = %v, want ErrGenerationExhausted", err)
	}
	if _, err := g.PopularName(1999, Female); !errors.Is(err, ErrGenerationExhausted) {
		t.Errorf("PopularName for missing year: err = %v, want ErrGenerationExhausted", err)
	}
	if _, err := g.PopularYear("Ana", ""); !errors.Is(err, ErrGenerationExhausted) {
		t.Errorf("PopularYear with duplicate years: err = %v, want ErrGenerationExhausted", err)
	}
}

func TestDuplicateKeysKeepHighestCount(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Juan,5
2010,M,Pedro,300
2010,M,Luis,100
2010,M,Juan,600
`)
	g := newTestGenerator(t, ds, DefaultGeneratorConfig())

	q, err := g.PopularName(2010, Male)
	if err != nil {
		t.Fatalf("PopularName: %v", err)
	}
	if q.Correct.Name != "Juan" || q.Correct.Count != 600 {
		t.Errorf("correct = %+v, want Juan/600", q.Correct)
	}
}

func TestDistractorsPreferCloseCounts(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GeneratorConfig
		csv     string
		always  []string
		oneFrom []string
	}{
		{
			name: "ratio",
			cfg:  GeneratorConfig{MaxAttempts: 1, CloseRatio: 0.5},
			csv: `year,gender,name,count
2010,F,Sofía,1000
2010,F,Amanda,10
2010,F,Isidora,900
2010,F,Trinidad,20
2010,F,Emilia,800
2010,F,Josefa,15
`,
			always: []string{"Sofía", "Isidora", "Emilia"},
		},
		{
			name: "ratio falls back to far",
			cfg:  GeneratorConfig{MaxAttempts: 1, CloseRatio: 0.5},
			csv: `year,gender,name,count
2010,F,Sofía,1000
2010,F,Amanda,10
2010,F,Isidora,900
2010,F,Trinidad,20
`,
			always:  []string{"Sofía", "Isidora"},
			oneFrom: []string{"Amanda", "Trinidad"},
		},
		{
			name: "delta",
			cfg:  GeneratorConfig{MaxAttempts: 1, CloseDelta: 150},
			csv: `year,gender,name,count
2010,F,Sofía,1000
2010,F,Isidora,900
2010,F,Emilia,800
2010,F,Catalina,860
2010,F,Amanda,10
`,
			always: []string{"Sofía", "Isidora", "Catalina"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, mustLoad(t, tt.csv), tt.cfg)

			for range 50 {
				q, err := g.PopularName(2010, Female)
				if err != nil {
					t.Fatalf("PopularName: %v", err)
				}

				names := optionNames(q)
				for _, want := range tt.always {
					if !slices.Contains(names, want) {
						t.Fatalf("options %v missing %q", names, want)
					}
				}
				if tt.oneFrom != nil {
					n := 0
					for _, name := range names {
						if slices.Contains(tt.oneFrom, name) {
							n++
						}
					}
					if n != 1 {
						t.Fatalf("options %v have %d of %v, want 1", names, n, tt.oneFrom)
					}
				}
			}
		})
	}
}

func TestNextInvariants(t *testing.T) {
	ds, err := LoadEmbedded(zap.NewNop())
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	records := ds.Records()

	for _, byGender := range []bool{false, true} {
		cfg := DefaultGeneratorConfig()
		cfg.YearByGender = byGender
		g := newTestGenerator(t, ds, cfg)

		kinds := map[Kind]int{}

		for range 500 {
			q, err := g.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			kinds[q.Kind]++

			matches := 0
			seen := map[string]bool{}
			for i, o := range q.Options {
				key := o.Name
				if q.Kind == KindPopularYear {
					key = q.Labels()[i]
				}
				if seen[key] {
					t.Fatalf("duplicate option %q in %+v", key, q)
				}
				seen[key] = true

				if q.Matches(o) {
					matches++
				}
			}
			if matches != 1 {
				t.Fatalf("%d options match the answer in %+v", matches, q)
			}

			best := 0
			for _, r := range records {
				switch q.Kind {
				case KindPopularName:
					if r.Year == q.Year && r.Gender == q.Gender {
						best = max(best, r.Count)
					}
				case KindPopularYear:
					if r.Name == q.Name && (q.Gender == "" || r.Gender == q.Gender) {
						best = max(best, r.Count)
					}
				}
			}
			if q.Correct.Count != best {
				t.Fatalf("correct count = %d, want maximum %d in %+v", q.Correct.Count, best, q)
			}

			if q.Kind == KindPopularYear && byGender {
				for _, o := range q.Options {
					if o.Gender != q.Gender {
						t.Fatalf("option %+v does not match sampled gender %s", o, q.Gender)
					}
				}
			}
		}

		if kinds[KindPopularName] == 0 || kinds[KindPopularYear] == 0 {
			t.Errorf("byGender=%v: kinds generated = %v, want both", byGender, kinds)
		}
	}
}

func TestNextFallsBackToOtherKind(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want Kind
	}{
		{
			name: "no year has three names",
			csv: `year,gender,name,count
2010,F,Ana,10
2011,F,Ana,20
2012,F,Ana,30
2010,M,Juan,10
2011,M,Juan,20
2012,M,Juan,30
`,
			want: KindPopularYear,
		},
		{
			name: "no name has three years",
			csv: `year,gender,name,count
2010,M,Juan,500
2010,M,Pedro,300
2010,M,Luis,100
2011,F,Ana,500
2011,F,Sofía,300
2011,F,Emilia,100
`,
			want: KindPopularName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, mustLoad(t, tt.csv), GeneratorConfig{MaxAttempts: 40})

			for range 100 {
				q, err := g.Next()
				if err != nil {
					t.Fatalf("Next: %v", err)
				}
				if q.Kind != tt.want {
					t.Fatalf("kind = %s, want %s", q.Kind, tt.want)
				}
			}
		})
	}
}

func TestNextNoQuestionAvailable(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Juan,500
2011,M,Pedro,300
`)
	g := newTestGenerator(t, ds, GeneratorConfig{MaxAttempts: 3})

	for range 10 {
		if _, err := g.Next(); !errors.Is(err, ErrNoQuestionAvailable) {
			t.Fatalf("err = %v, want ErrNoQuestionAvailable", err)
		}
	}
}

func TestShuffleIsUniform(t *testing.T) {
	ds := mustLoad(t, `year,gender,name,count
2010,M,Juan,500
2010,M,Pedro,300
2010,M,Luis,100
`)
	g := newTestGenerator(t, ds, DefaultGeneratorConfig())

	const trials = 3000
	var positions [optionCount]int

	for range trials {
		q, err := g.PopularName(2010, Male)
		if err != nil {
			t.Fatalf("PopularName: %v", err)
		}
		positions[q.Answer()]++
	}

	for i, n := range positions {
		if n < 850 || n > 1150 {
			t.Errorf("correct answer at index %d in %d of %d trials", i, n, trials)
		}
	}
}

func TestGeneratorConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  GeneratorConfig
		ok   bool
	}{
		{"default", DefaultGeneratorConfig(), true},
		{"zero attempts", GeneratorConfig{CloseRatio: 0.5}, false},
		{"ratio above one", GeneratorConfig{MaxAttempts: 1, CloseRatio: 1.5}, false},
		{"negative ratio", GeneratorConfig{MaxAttempts: 1, CloseRatio: -0.1}, false},
		{"negative delta", GeneratorConfig{MaxAttempts: 1, CloseDelta: -1}, false},
		{"delta only", GeneratorConfig{MaxAttempts: 1, CloseDelta: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestNewRandIsSeededPerCall(t *testing.T) {
	a, b := NewRand(), NewRand()

	same := true
	for range 4 {
		if a.Uint64() != b.Uint64() {
			same = false
		}
	}
	if same {
		t.Error("two NewRand sources produced the same sequence")
	}
}
