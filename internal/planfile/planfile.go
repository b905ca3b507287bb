// Package planfile reads sampling configurations and question banks from
// YAML or JSON files for offline planning.
package planfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stemsi/exstem-planner/internal/sampling"
)

// Format is the encoding of a plan file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension. Anything that is not
// .json is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// configurationFile mirrors sampling.Configuration so distributions can be
// written as a mapping or as a list of key/percent entries.
type configurationFile struct {
	ID                     string         `yaml:"id"`
	Name                   string         `yaml:"name"`
	TotalQuestions         int            `yaml:"total_questions"`
	DifficultyDistribution distribution   `yaml:"difficulty_distribution"`
	OwnerDistribution      distribution   `yaml:"owner_distribution"`
	PassingScore           int            `yaml:"passing_score"`
	TimeLimitMinutes       *int           `yaml:"time_limit_minutes"`
	Scope                  sampling.Scope `yaml:"scope"`
	Version                int            `yaml:"version"`
}

func (f configurationFile) configuration() sampling.Configuration {
	return sampling.Configuration{
		ID:                     f.ID,
		Name:                   f.Name,
		TotalQuestions:         f.TotalQuestions,
		DifficultyDistribution: f.DifficultyDistribution.dist,
		OwnerDistribution:      f.OwnerDistribution.dist,
		PassingScore:           f.PassingScore,
		TimeLimitMinutes:       f.TimeLimitMinutes,
		Scope:                  f.Scope,
		Version:                f.Version,
	}
}

type distribution struct {
	dist sampling.DistributionMap
}

// UnmarshalYAML accepts `easy: 50` mappings and `- {key: easy, percent: 50}`
// lists. Repeated keys are rejected in both forms.
func (d *distribution) UnmarshalYAML(node *yaml.Node) error {
	var shares []sampling.BucketShare

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			d.dist = nil
			return nil
		}
		return fmt.Errorf("line %d: distribution must be a mapping or a list", node.Line)
	case yaml.SequenceNode:
		if err := node.Decode(&shares); err != nil {
			return err
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			var pct int
			if err := node.Content[i+1].Decode(&pct); err != nil {
				return fmt.Errorf("line %d: distribution %q: %w", node.Content[i].Line, node.Content[i].Value, err)
			}
			shares = append(shares, sampling.BucketShare{Key: node.Content[i].Value, Percent: pct})
		}
	default:
		return fmt.Errorf("line %d: distribution must be a mapping or a list", node.Line)
	}

	dist, err := sampling.ParseDistribution(shares)
	if err != nil {
		return err
	}
	d.dist = dist
	return nil
}

// DecodeConfiguration reads one configuration from r.
func DecodeConfiguration(r io.Reader, format Format) (sampling.Configuration, error) {
	if format == FormatJSON {
		var cfg sampling.Configuration
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return sampling.Configuration{}, fmt.Errorf("decode configuration: %w", err)
		}
		return cfg, nil
	}

	var file configurationFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return sampling.Configuration{}, errors.New("decode configuration: empty document")
		}
		return sampling.Configuration{}, fmt.Errorf("decode configuration: %w", err)
	}
	return file.configuration(), nil
}

// questionsFile is the document layout of a question bank.
type questionsFile struct {
	Questions []sampling.Question `json:"questions" yaml:"questions"`
}

// DecodeQuestions reads a question bank from r.
func DecodeQuestions(r io.Reader, format Format) ([]sampling.Question, error) {
	var file questionsFile

	if format == FormatJSON {
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		return file.Questions, nil
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return file.Questions, nil
}

// ReadConfiguration loads a configuration file, picking the format from its
// extension.
func ReadConfiguration(path string) (sampling.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sampling.Configuration{}, err
	}
	return DecodeConfiguration(bytes.NewReader(data), FormatOf(path))
}

// ReadQuestions loads a question bank file, picking the format from its
// extension.
func ReadQuestions(path string) ([]sampling.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeQuestions(bytes.NewReader(data), FormatOf(path))
}

// WriteConfiguration encodes cfg as YAML with mapping-form distributions.
func WriteConfiguration(w io.Writer, cfg sampling.Configuration) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
