// Package recurrence generates occurrences of recurring calendar items
// and synthesizes per-occurrence copies for report expansion.
package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// maxOccurrences bounds iteration of rules whose frequency would generate
// an unreasonable number of occurrences inside the window.
const maxOccurrences = 100000

// Occurrences lists the start times a recurrence rule produces, beginning
// at start and strictly before end. The rule string is the raw RRULE value,
// e.g. "FREQ=DAILY;COUNT=5".
func Occurrences(start time.Time, rule string, end time.Time) ([]time.Time, error) {
	src := fmt.Sprintf("DTSTART:%s\nRRULE:%s",
		start.UTC().Format("20060102T150405Z"), rule)
	set, err := rrule.StrToRRuleSet(src)
	if err != nil {
		return nil, fmt.Errorf("recurrence: parse rule %q: %w", rule, err)
	}

	var out []time.Time
	next := set.Iterator()
	for {
		t, ok := next()
		if !ok || !t.Before(end) {
			break
		}
		out = append(out, t)
		if len(out) >= maxOccurrences {
			break
		}
	}
	return out, nil
}
