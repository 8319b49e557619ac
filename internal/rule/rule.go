// Package rule implements the Rule Model: validating and normalizing the
// ordered rule list that the Content Processor applies to file content.
package rule

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/oxhq/multigrep/internal/xerr"
)

// Input is the raw, caller-supplied form of a rule before validation.
type Input struct {
	ID            string
	From          string
	To            string
	Enabled       *bool // nil means "use the RuleSet default" (true)
	CaseSensitive *bool // nil means "inherit Defaults.CaseSensitive"
	WholeWord     *bool // nil means "inherit Defaults.WholeWord"
	Description   string
}

// Defaults carries engine-level matcher defaults inherited by rules that
// don't set them explicitly (spec.md §3, RuleSet).
type Defaults struct {
	CaseSensitive bool
	WholeWord     bool
}

// Rule is one fully validated, normalized entry in a Set. Every field is
// populated after NewSet returns successfully — there are no optional
// pointer fields left on a validated Rule.
type Rule struct {
	ID            string
	From          string
	To            string
	Enabled       bool
	CaseSensitive bool
	WholeWord     bool
	Description   string
}

// Set is an ordered, validated sequence of Rules. Application order is
// list order; there is no implicit reordering (spec.md §3).
type Set struct {
	Rules []Rule
}

// Enabled returns the subset of rules with Enabled == true, preserving
// order. Disabling a rule and removing it from the input list must
// produce identical Content Processor output (spec.md §3 invariant); this
// is how that invariant is realized downstream.
func (s *Set) Enabled() []Rule {
	out := make([]Rule, 0, len(s.Rules))
	for _, r := range s.Rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// NewSet validates raw and normalizes it into a Set, filling in any
// attribute a rule didn't override from defaults. Validation is total:
// on success every Rule has every field populated.
func NewSet(raw []Input, defaults Defaults) (*Set, error) {
	if len(raw) == 0 {
		return nil, xerr.New(xerr.EmptyRuleSet, "rule set must contain at least one rule")
	}

	rules := make([]Rule, 0, len(raw))
	for i, in := range raw {
		if in.From == "" {
			return nil, xerr.Wrap(xerr.InvalidRule,
				fmt.Sprintf("rule %d: from must not be empty", i),
				nil)
		}

		r := Rule{
			ID:            in.ID,
			From:          in.From,
			To:            in.To,
			Enabled:       true,
			CaseSensitive: defaults.CaseSensitive,
			WholeWord:     defaults.WholeWord,
			Description:   in.Description,
		}
		if in.Enabled != nil {
			r.Enabled = *in.Enabled
		}
		if in.CaseSensitive != nil {
			r.CaseSensitive = *in.CaseSensitive
		}
		if in.WholeWord != nil {
			r.WholeWord = *in.WholeWord
		}
		if r.ID == "" {
			r.ID = stableID(i, r.From, r.To)
		}
		rules = append(rules, r)
	}

	return &Set{Rules: rules}, nil
}

// stableID derives a short, deterministic identifier for a rule that
// wasn't given one explicitly, using SHA1 for the content fingerprint
// rather than introducing a second hash family for this one purpose.
func stableID(index int, from, to string) string {
	h := sha1.New()
	fmt.Fprintf(h, "%d:%s:%s", index, from, to)
	return "rule-" + hex.EncodeToString(h.Sum(nil))[:10]
}
