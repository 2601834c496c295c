package server

import (
	"net/http"
	"path"
	"slices"
	"sort"
	"time"

	"github.com/beevik/etree"

	"github.com/calyptra/calyptra/internal/xml"
	"github.com/calyptra/calyptra/server/recurrence"
	"github.com/calyptra/calyptra/server/storage"
)

// reportQuery is the parsed shape of a calendar-query or calendar-multiget
// request body.
type reportQuery struct {
	props  []string
	expand bool
	// limit keeps the recurrence rule in synthesized occurrence bodies. It
	// moves together with expand: either modifier child sets both flags, a
	// matched pair inherited from the protocol's ancestry.
	limit bool
	start time.Time
	end   time.Time
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	doc, err := xml.Parse(ctx.body)
	if err != nil {
		h.Logger.Warn("unparsable report body", "path", ctx.path, "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	root := doc.Root()
	query := parseReportQuery(root)

	msDoc := xml.NewMultistatus()
	if cal := firstCalendar(ctx.chain); cal != nil {
		var hrefs []string
		if xml.Humanize(root) == "C:calendar-multiget" {
			for _, child := range root.ChildElements() {
				if xml.Humanize(child) != "D:href" {
					continue
				}
				href := SanitizePath(child.Text())
				if !slices.Contains(hrefs, href) {
					hrefs = append(hrefs, href)
				}
			}
		} else {
			hrefs = []string{ctx.path}
		}
		var kept []reportItem
		for _, href := range hrefs {
			kept = append(kept, h.collectHref(cal, href, query)...)
		}
		// One global ordering across every referenced href.
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].item.Start().Before(kept[j].item.Start())
		})
		for _, r := range kept {
			h.reportResponse(msDoc.Root(), cal, r, query.props)
		}
	}
	h.writeMultistatus(w, msDoc)
}

// reportItem pairs a surviving item with the base path its response href
// is built from.
type reportItem struct {
	base string
	item *storage.Item
}

func parseReportQuery(root *etree.Element) *reportQuery {
	q := &reportQuery{}
	if prop := root.FindElement("prop"); prop != nil {
		for _, child := range prop.ChildElements() {
			q.props = append(q.props, xml.Humanize(child))
			for _, mod := range child.ChildElements() {
				switch xml.Humanize(mod) {
				case "C:expand", "C:limit-recurrence-set":
					q.expand = true
					q.limit = true
				}
			}
		}
	}
	// filter > comp-filter > comp-filter > time-range
	if filter := root.FindElement("filter"); filter != nil {
		for _, comp := range filter.ChildElements() {
			for _, sub := range comp.ChildElements() {
				for _, f := range sub.ChildElements() {
					if xml.Humanize(f) != "C:time-range" {
						continue
					}
					if v := f.SelectAttrValue("start", ""); v != "" {
						if t, err := time.Parse(storage.TimeLayout, v); err == nil {
							q.start = t
						}
					}
					if v := f.SelectAttrValue("end", ""); v != "" {
						if t, err := time.Parse(storage.TimeLayout, v); err == nil {
							q.end = t
						}
					}
				}
			}
		}
	}
	return q
}

// collectHref gathers the surviving items of one href reference: a single
// item when the href names one, the whole collection otherwise.
func (h *Handler) collectHref(cal *storage.Calendar, href string, q *reportQuery) []reportItem {
	base := href
	var candidates []*storage.Item
	if name := itemNameFromPath(href, cal); name != "" {
		base = path.Dir(href)
		if item := cal.Item(name); item != nil {
			candidates = []*storage.Item{item}
		}
	} else {
		candidates = cal.Components()
	}

	var kept []reportItem
	for _, item := range candidates {
		if q.expand && item.Rule() != "" && !q.end.IsZero() {
			if keepByRange(item, q.start, q.end) {
				kept = append(kept, reportItem{base, item})
			}
			derived, err := recurrence.Expand(item, q.start, q.end, q.limit)
			if err != nil {
				h.Logger.Warn("failed to expand recurrence",
					"item", item.Href(), "error", err)
				continue
			}
			for _, d := range derived {
				kept = append(kept, reportItem{base, d})
			}
		} else if keepByRange(item, q.start, q.end) {
			kept = append(kept, reportItem{base, item})
		}
	}
	return kept
}

func (h *Handler) reportResponse(root *etree.Element, cal *storage.Calendar, r reportItem, props []string) {
	resp := xml.AddResponse(root, r.base+"/"+r.item.Name)
	propstat := resp.CreateElement("D:propstat")
	prop := propstat.CreateElement("D:prop")
	for _, tag := range props {
		prefix, local := xml.SplitTag(tag)
		elem := xml.NewElement(prefix, local)
		switch tag {
		case "D:getetag":
			elem.SetText(r.item.ETag())
		case "C:calendar-data":
			text, err := storage.SerializeCalendar(cal.Headers, cal.Timezone, r.item)
			if err != nil {
				h.Logger.Warn("failed to serialize item",
					"item", r.item.Href(), "error", err)
			} else {
				elem.SetText(text)
			}
		}
		prop.AddChild(elem)
	}
	propstat.CreateElement("D:status").SetText(xml.StatusLine(http.StatusOK))
}

// keepByRange keeps an item when its start lies strictly inside the open
// interval bounded by the filter; absent bounds are unbounded.
func keepByRange(item *storage.Item, start, end time.Time) bool {
	s := item.Start()
	return (start.IsZero() || start.Before(s)) && (end.IsZero() || end.After(s))
}
