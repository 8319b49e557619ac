package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oxhq/multigrep/internal/rule"
	"github.com/oxhq/multigrep/internal/xerr"
)

// Document is the persisted, hand-editable rule-set configuration named
// in spec.md §6: metadata, an ordered replacements list, and target
// settings. Modeled on the shape the corpus's cosmic-bytes-var-sync repo
// persists its sync configuration in — a human-editable YAML document —
// and marshaled with gopkg.in/yaml.v3, with json tags carried along for
// programmatic producers.
type Document struct {
	Metadata     Metadata           `yaml:"metadata" json:"metadata"`
	Replacements []ReplacementEntry `yaml:"replacements" json:"replacements"`
	Target       TargetSettings     `yaml:"target_settings" json:"target_settings"`
}

// Metadata carries descriptive, non-functional document fields.
type Metadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ReplacementEntry is the on-disk form of one rule.Input.
type ReplacementEntry struct {
	ID            string `yaml:"id,omitempty" json:"id,omitempty"`
	From          string `yaml:"from" json:"from"`
	To            string `yaml:"to" json:"to"`
	Enabled       *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	CaseSensitive *bool  `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
	WholeWord     *bool  `yaml:"whole_word,omitempty" json:"whole_word,omitempty"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
}

// TargetSettings is the persisted form of the walker/engine options that
// make sense to pin in a rules document.
type TargetSettings struct {
	Root         string   `yaml:"root,omitempty" json:"root,omitempty"`
	Include      []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	UseGitignore *bool    `yaml:"use_gitignore,omitempty" json:"use_gitignore,omitempty"`
}

// LoadDocument reads and strictly parses a YAML rules document. Unknown
// fields are a construction error rather than silently ignored, per
// spec.md §9's call for an explicit options struct over freeform dynamic
// config.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerr.Wrap(xerr.PathNotFound, "rules document not found", err)
		}
		return nil, xerr.Wrap(xerr.ReadError, "cannot read rules document", err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, xerr.Wrap(xerr.InvalidRule, "cannot parse rules document", err)
	}
	return &doc, nil
}

// ToRuleInputs converts the document's replacements into rule.Input
// values for rule.NewSet.
func (d *Document) ToRuleInputs() []rule.Input {
	out := make([]rule.Input, 0, len(d.Replacements))
	for _, e := range d.Replacements {
		out = append(out, rule.Input{
			ID:            e.ID,
			From:          e.From,
			To:            e.To,
			Enabled:       e.Enabled,
			CaseSensitive: e.CaseSensitive,
			WholeWord:     e.WholeWord,
			Description:   e.Description,
		})
	}
	return out
}

// SaveDocument marshals doc as YAML and writes it to path.
func SaveDocument(path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return xerr.Wrap(xerr.WriteError, "cannot marshal rules document", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerr.Wrap(xerr.WriteError, "cannot write rules document", err)
	}
	return nil
}
