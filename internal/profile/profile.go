package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultModel is used when a profile leaves prompt.model empty.
const DefaultModel = "meta-llama/llama-4-maverick-17b-128e-instruct"

//go:embed ifs_food_v8.yaml
var defaultProfileYAML []byte

var ErrInvalidProfile = errors.New("invalid profile")

// Profile captures everything that differs between audit standards or export
// releases: where the header sits, how columns are named, the prompt and the
// labels used in exports.
type Profile struct {
	Name           string   `yaml:"name"`
	HeaderRow      int      `yaml:"header_row"`
	HeaderScanRows int      `yaml:"header_scan_rows"`
	Columns        Columns  `yaml:"columns"`
	Prompt         Prompt   `yaml:"prompt"`
	Sections       []string `yaml:"sections"`
	Export         Labels   `yaml:"export"`
}

// Columns lists accepted header aliases per logical column.
type Columns struct {
	RequirementNo   []string `yaml:"requirement_no"`
	RequirementText []string `yaml:"requirement_text"`
	Explanation     []string `yaml:"explanation"`
	Score           []string `yaml:"score"`
}

type Prompt struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
}

// Labels are the human-facing column names used by exporters.
type Labels struct {
	Title           string `yaml:"title"`
	RequirementNo   string `yaml:"requirement_no"`
	RequirementText string `yaml:"requirement_text"`
	Explanation     string `yaml:"explanation"`
	Score           string `yaml:"score"`
	Recommendation  string `yaml:"recommendation"`
}

// Default returns the embedded IFS Food v8 profile.
func Default() Profile {
	p, err := Parse(defaultProfileYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded profile: %v", err))
	}
	return p
}

// Load reads a profile from path, or returns Default when path is empty.
func Load(path string) (Profile, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: read %s: %w", path, err)
	}
	p, err := Parse(content)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (Profile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Profile{}, fmt.Errorf("%w: empty payload", ErrInvalidProfile)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: decode: %v", ErrInvalidProfile, err)
	}
	return p.normalized()
}

func (p Profile) normalized() (Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = "custom"
	}
	if p.HeaderRow <= 0 {
		return Profile{}, fmt.Errorf("%w: header_row must be >= 1", ErrInvalidProfile)
	}
	if p.HeaderScanRows < p.HeaderRow {
		p.HeaderScanRows = p.HeaderRow
	}

	var missing []string
	if len(p.Columns.RequirementNo) == 0 {
		missing = append(missing, "columns.requirement_no")
	}
	if len(p.Columns.RequirementText) == 0 {
		missing = append(missing, "columns.requirement_text")
	}
	if len(p.Columns.Explanation) == 0 {
		missing = append(missing, "columns.explanation")
	}
	if strings.TrimSpace(p.Prompt.User) == "" {
		missing = append(missing, "prompt.user")
	}
	if len(missing) > 0 {
		return Profile{}, fmt.Errorf("%w: missing %s", ErrInvalidProfile, strings.Join(missing, ", "))
	}

	if strings.TrimSpace(p.Prompt.Model) == "" {
		p.Prompt.Model = DefaultModel
	}
	p.Export = p.Export.withDefaults()
	return p, nil
}

func (l Labels) withDefaults() Labels {
	if l.Title == "" {
		l.Title = "Action plan"
	}
	if l.RequirementNo == "" {
		l.RequirementNo = "Requirement"
	}
	if l.RequirementText == "" {
		l.RequirementText = "Requirement text"
	}
	if l.Explanation == "" {
		l.Explanation = "Explanation"
	}
	if l.Score == "" {
		l.Score = "Score"
	}
	if l.Recommendation == "" {
		l.Recommendation = "Recommendation"
	}
	return l
}
