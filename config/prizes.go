package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prizes.yaml
var defaultPrizes []byte

type Prize struct {
	Name   string `yaml:"name"`
	URI    string `yaml:"uri"`
	Weight uint64 `yaml:"weight"`
}

type prizeFile struct {
	Prizes []Prize `yaml:"prizes"`
}

// LoadPrizes reads a prize seed file. An empty path yields the default
// five-tier prize table.
func LoadPrizes(path string) ([]Prize, error) {
	var r io.Reader = bytes.NewReader(defaultPrizes)
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open prize file: %w", err)
		}
		defer file.Close()
		r = file
	}

	var pf prizeFile
	if err := yaml.NewDecoder(r).Decode(&pf); err != nil {
		return nil, fmt.Errorf("failed to parse prize file: %w", err)
	}

	if len(pf.Prizes) == 0 {
		return nil, fmt.Errorf("prize file lists no prizes")
	}
	for i, p := range pf.Prizes {
		if p.Name == "" {
			return nil, fmt.Errorf("prize %d has no name", i)
		}
		if p.Weight == 0 {
			return nil, fmt.Errorf("prize %s has zero weight", p.Name)
		}
	}

	return pf.Prizes, nil
}
