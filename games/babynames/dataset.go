/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package babynames

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

var genders = []Gender{Male, Female}

func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// Record is one row of the dataset: how many babies of a gender were given a
// name in a year.
type Record struct {
	Year   int    `json:"year"`
	Gender Gender `json:"gender"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

const fieldsPerRow = 4

var (
	ErrEmptyInput  = errors.New("dataset input is empty")
	ErrNoValidRows = errors.New("dataset contains no valid rows")
)

// LoadError is returned when a dataset cannot be used at all.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return "load dataset: " + e.Err.Error()
	}
	return fmt.Sprintf("load dataset %s: %s", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RowError describes a single dropped row.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Dataset is read-only once loaded and safe to share between sessions.
type Dataset struct {
	records []Record
	years   []int
	names   []string
}

// Summary describes a dataset for display.
type Summary struct {
	Records int `json:"records"`
	Names   int `json:"names"`
	Years   int `json:"years"`
	First   int `json:"first_year"`
	Last    int `json:"last_year"`
}

// Load parses year,gender,name,count rows from r. The first row is a header
// and is discarded. Malformed rows are logged and dropped.
func Load(r io.Reader, logger *zap.Logger) (*Dataset, error) {
	return load("", r, logger)
}

// LoadFile loads a dataset from a CSV file on disk.
func LoadFile(path string, logger *zap.Logger) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	return load(path, f, logger)
}

func load(source string, r io.Reader, logger *zap.Logger) (*Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("%w: %w", ErrEmptyInput, err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Source: source, Err: ErrEmptyInput}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var (
		records []Record
		dropped int
		header  = true
	)

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, &LoadError{Source: source, Err: err}
			}
			if header {
				header = false
				continue
			}
			dropped++
			logger.Warn("dropping dataset row",
				zap.String("source", source),
				zap.Error(&RowError{Line: perr.Line, Reason: perr.Err.Error()}))
			continue
		}

		if header {
			header = false
			continue
		}

		line, _ := cr.FieldPos(0)

		rec, rerr := parseRow(line, fields)
		if rerr != nil {
			dropped++
			logger.Warn("dropping dataset row",
				zap.String("source", source),
				zap.Error(rerr))
			continue
		}

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &LoadError{Source: source, Err: ErrNoValidRows}
	}

	logger.Debug("dataset loaded",
		zap.String("source", source),
		zap.Int("records", len(records)),
		zap.Int("dropped", dropped))

	return newDataset(records), nil
}

func parseRow(line int, fields []string) (Record, error) {
	if len(fields) != fieldsPerRow {
		return Record{}, &RowError{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", fieldsPerRow, len(fields))}
	}

	year, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Record{}, &RowError{Line: line, Reason: fmt.Sprintf("invalid year %q", fields[0])}
	}
	if year <= 0 {
		return Record{}, &RowError{Line: line, Reason: fmt.Sprintf("year must be positive, got %d", year)}
	}

	gender := Gender(strings.ToUpper(strings.TrimSpace(fields[1])))
	if gender == "" {
		return Record{}, &RowError{Line: line, Reason: "empty gender"}
	}
	if !gender.Valid() {
		return Record{}, &RowError{Line: line, Reason: fmt.Sprintf("unknown gender %q", fields[1])}
	}

	name := strings.TrimSpace(fields[2])
	if name == "" {
		return Record{}, &RowError{Line: line, Reason: "empty name"}
	}

	count, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return Record{}, &RowError{Line: line, Reason: fmt.Sprintf("invalid count %q", fields[3])}
	}
	if count <= 0 {
		return Record{}, &RowError{Line: line, Reason: fmt.Sprintf("count must be positive, got %d", count)}
	}

	return Record{Year: year, Gender: gender, Name: name, Count: count}, nil
}

func newDataset(records []Record) *Dataset {
	ds := &Dataset{records: records}

	seenYears := make(map[int]bool)
	seenNames := make(map[string]bool)

	for _, r := range records {
		if !seenYears[r.Year] {
			seenYears[r.Year] = true
			ds.years = append(ds.years, r.Year)
		}
		if !seenNames[r.Name] {
			seenNames[r.Name] = true
			ds.names = append(ds.names, r.Name)
		}
	}

	slices.Sort(ds.years)

	return ds
}

// Records returns a copy of every record, in load order.
func (d *Dataset) Records() []Record {
	return slices.Clone(d.records)
}

func (d *Dataset) Len() int {
	return len(d.records)
}

// Years returns the distinct years present, ascending.
func (d *Dataset) Years() []int {
	return slices.Clone(d.years)
}

// Names returns the distinct names present, in first-seen order.
func (d *Dataset) Names() []string {
	return slices.Clone(d.names)
}

func (d *Dataset) Summary() Summary {
	s := Summary{
		Records: len(d.records),
		Names:   len(d.names),
		Years:   len(d.years),
	}
	if len(d.years) > 0 {
		s.First = d.years[0]
		s.Last = d.years[len(d.years)-1]
	}
	return s
}

// filter returns the records matching keep, in load order.
func (d *Dataset) filter(keep func(Record) bool) []Record {
	var out []Record
	for _, r := range d.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
