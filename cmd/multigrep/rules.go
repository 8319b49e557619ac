package main

import (
	"fmt"

	"github.com/oxhq/multigrep/internal/config"
	"github.com/oxhq/multigrep/internal/rule"
	"github.com/oxhq/multigrep/internal/xerr"
)

// resolveRules builds a validated rule.Set from either a --rules
// document or positional --from/--to pairs.
func resolveRules(f *sharedFlags, defaults rule.Defaults) (*rule.Set, error) {
	if f.rulesPath != "" {
		doc, err := config.LoadDocument(f.rulesPath)
		if err != nil {
			return nil, err
		}
		return rule.NewSet(doc.ToRuleInputs(), defaults)
	}

	if len(f.from) == 0 {
		return nil, xerr.New(xerr.EmptyRuleSet, "no rules given: pass --rules or at least one --from/--to pair")
	}
	if len(f.from) != len(f.to) {
		return nil, xerr.New(xerr.InvalidRule, fmt.Sprintf("--from and --to count mismatch: %d vs %d", len(f.from), len(f.to)))
	}

	inputs := make([]rule.Input, 0, len(f.from))
	for i := range f.from {
		inputs = append(inputs, rule.Input{From: f.from[i], To: f.to[i]})
	}
	return rule.NewSet(inputs, defaults)
}
