package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"ifs-actionplan/internal/actionplan"
	"ifs-actionplan/internal/guide"
	"ifs-actionplan/internal/llm"
	"ifs-actionplan/internal/profile"
)

// Fields are the values available to the user template.
type Fields struct {
	RequirementNo    string
	RequirementText  string
	Explanation      string
	Score            string
	GuideRequirement string
	GoodPractice     string
	ElementsToCheck  string
	ExampleQuestions string
}

// Builder renders LLM requests for one profile.
type Builder struct {
	system      string
	model       string
	temperature float64
	user        *template.Template
}

// NewBuilder compiles the profile's user template.
func NewBuilder(p profile.Profile) (*Builder, error) {
	tmpl, err := template.New(p.Name).Option("missingkey=error").Parse(p.Prompt.User)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", p.Name, err)
	}
	model := strings.TrimSpace(p.Prompt.Model)
	if model == "" {
		model = profile.DefaultModel
	}
	return &Builder{
		system:      strings.TrimSpace(p.Prompt.System),
		model:       model,
		temperature: p.Prompt.Temperature,
		user:        tmpl,
	}, nil
}

// FieldsFor merges a plan row with its guide row.
func FieldsFor(row actionplan.Row, g guide.Row) Fields {
	return Fields{
		RequirementNo:    row.RequirementNo,
		RequirementText:  row.RequirementText,
		Explanation:      row.Explanation,
		Score:            row.Score,
		GuideRequirement: g.Requirement,
		GoodPractice:     g.GoodPractice,
		ElementsToCheck:  g.ElementsToCheck,
		ExampleQuestions: g.ExampleQuestions,
	}
}

// Build renders the request for a row.
func (b *Builder) Build(row actionplan.Row, g guide.Row) (llm.Request, error) {
	var sb strings.Builder
	if err := b.user.Execute(&sb, FieldsFor(row, g)); err != nil {
		return llm.Request{}, fmt.Errorf("render prompt for %s: %w", row.RequirementNo, err)
	}
	return llm.Request{
		System:      b.system,
		User:        strings.TrimSpace(sb.String()),
		Model:       b.model,
		Temperature: b.temperature,
	}, nil
}

// Model returns the model requests are addressed to.
func (b *Builder) Model() string {
	return b.model
}
