package babynames

import (
	"bytes"
	_ "embed"

	"go.uber.org/zap"
)

//go:embed data/names.csv
var sampleCSV []byte

// LoadEmbedded loads the sample dataset compiled into the binary.
func LoadEmbedded(logger *zap.Logger) (*Dataset, error) {
	return load("embedded", bytes.NewReader(sampleCSV), logger)
}
