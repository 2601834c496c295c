package recurrence

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/calyptra/calyptra/server/storage"
)

// Expand synthesizes one derived item per occurrence of a recurring item
// inside the filter window. The original item itself is not included; the
// caller decides whether it belongs in the result on its own. start may be
// zero (no lower bound), end must be set. When keepRule is true the derived
// items keep their recurrence rule alongside the RECURRENCE-ID marker.
func Expand(item *storage.Item, start, end time.Time, keepRule bool) ([]*storage.Item, error) {
	rule := item.Rule()
	origStart := item.Start()
	if rule == "" || origStart.IsZero() {
		return nil, nil
	}

	occs, err := Occurrences(origStart, rule, end)
	if err != nil {
		return nil, err
	}

	summary := item.Summary()
	hasEnd := item.Component.Props.Get(ical.PropDateTimeEnd) != nil
	duration := item.End().Sub(origStart)

	var out []*storage.Item
	for n, occ := range occs {
		if !occ.After(origStart) {
			continue
		}
		if !start.IsZero() && !occ.After(start) {
			continue
		}
		derived := item.Clone()
		props := derived.Component.Props
		props.SetText("RECURRENCE-ID", origStart.UTC().Format(storage.TimeLayout))
		if !keepRule {
			props.Del(ical.PropRecurrenceRule)
		}
		if summary != "" {
			props.SetText(ical.PropSummary, fmt.Sprintf("%s (#%d)", summary, n+1))
		}
		props.SetText(ical.PropDateTimeStart, occ.UTC().Format(storage.TimeLayout))
		if hasEnd {
			props.SetText(ical.PropDateTimeEnd, occ.Add(duration).UTC().Format(storage.TimeLayout))
		}
		out = append(out, derived)
	}
	return out, nil
}
