// Package content implements the Content Processor: sequential, ordered
// application of a rule.Set to one content value (spec.md §4.3).
package content

import (
	"github.com/oxhq/multigrep/internal/matcher"
	"github.com/oxhq/multigrep/internal/rule"
)

// Change is one sampled Change Record: concrete evidence of a single
// applied substitution, carrying the rule's total count in this file
// (spec.md §3, Change Record). Samples are bounded per rule per file;
// Count is not — it always reflects every substitution for that rule.
type Change struct {
	RuleID string
	From   string
	To     string
	Count  int
	Span   matcher.Span // location in the content as it stood before this rule ran
}

// Result is the outcome of applying a rule.Set to one content value.
type Result struct {
	NewContent    string
	Modified      bool
	Total         int
	PerRuleCounts map[string]int
	Samples       []Change
}

// Options controls sampling behavior. SampleCap bounds the number of
// Change Records recorded per rule per file while every substitution is
// still counted (spec.md §3: "Change Record... Bounded per file").
type Options struct {
	SampleCap int // 0 means "use the package default"
}

const defaultSampleCap = 10

// Process applies set.Enabled() in list order to content, producing the
// input for the next rule at each step (spec.md §4.3 item 1: "Rule N
// therefore observes the output of rules 1..N-1"). Grounded on the
// teacher's internal/manipulator/manipulator.go apply-loop, generalized
// from its single-pass regex replace to an explicit ordered rule walk.
func Process(content string, set *rule.Set, opts Options) Result {
	cap := opts.SampleCap
	if cap <= 0 {
		cap = defaultSampleCap
	}

	res := Result{
		NewContent:    content,
		PerRuleCounts: make(map[string]int),
	}

	if content == "" || set == nil {
		return res
	}

	current := content
	for _, r := range set.Enabled() {
		m := matcher.New(r.From, r.To, r.CaseSensitive, r.WholeWord)
		next, spans := m.FindAndReplace(current)

		count := len(spans)
		res.PerRuleCounts[r.ID] = count
		res.Total += count

		if count > 0 && r.From != r.To {
			res.Modified = true
		}

		for i, sp := range spans {
			if i >= cap {
				break
			}
			res.Samples = append(res.Samples, Change{
				RuleID: r.ID,
				From:   r.From,
				To:     r.To,
				Count:  count,
				Span:   sp,
			})
		}

		current = next
	}

	res.NewContent = current
	return res
}
