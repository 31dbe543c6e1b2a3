package rules

import (
	"strings"

	"github.com/dshills/contentaudit/internal/schema"
)

// Probe is one (rule, trigger phrase) pair to test against normalized text.
type Probe struct {
	RuleIndex   int
	PhraseIndex int
	Phrase      string
}

// TriggerIndex maps normalized trigger phrases to the rules they violate and
// keeps the ordered probe list the matcher walks. It is built once per
// catalog and never modified.
type TriggerIndex struct {
	owners map[string]string
	probes []Probe
}

func buildIndex(rules []Rule) *TriggerIndex {
	x := &TriggerIndex{owners: make(map[string]string)}
	for ri := range rules {
		r := &rules[ri]
		if r.Kind != schema.KindPresence {
			continue
		}
		for pi, phrase := range r.Triggers {
			// first rule in catalog order owns a shared phrase
			if _, taken := x.owners[phrase]; !taken {
				x.owners[phrase] = r.ID
			}
			x.probes = append(x.probes, Probe{RuleIndex: ri, PhraseIndex: pi, Phrase: phrase})
		}
	}
	return x
}

// Lookup returns the id of the rule that owns phrase. The argument is
// normalized before lookup.
func (x *TriggerIndex) Lookup(phrase string) (string, bool) {
	id, ok := x.owners[Normalize(phrase)]
	return id, ok
}

// Len returns the number of probes, i.e. the total trigger phrase count.
func (x *TriggerIndex) Len() int { return len(x.probes) }

// Scan calls yield for every probe whose phrase occurs in normalized, in
// catalog order then phrase order. Each probe is reported at most once no
// matter how often its phrase repeats.
func (x *TriggerIndex) Scan(normalized string, yield func(Probe)) {
	if normalized == "" {
		return
	}
	for _, p := range x.probes {
		if strings.Contains(normalized, p.Phrase) {
			yield(p)
		}
	}
}
