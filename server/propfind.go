package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"github.com/samber/mo"

	"github.com/calyptra/calyptra/internal/xml"
	"github.com/calyptra/calyptra/server/storage"
)

func (h *Handler) handlePropfind(w http.ResponseWriter, r *http.Request, ctx *requestContext) {
	var props []string
	if ctx.body != "" {
		doc, err := xml.Parse(ctx.body)
		if err != nil {
			h.Logger.Warn("unparsable propfind body", "path", ctx.path, "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		props = xml.PropNames(doc.Root())
	}

	msDoc := xml.NewMultistatus()
	for _, res := range ctx.chain {
		h.propfindResponse(msDoc.Root(), ctx, res, props)
	}
	h.writeMultistatus(w, msDoc)
}

func (h *Handler) propfindResponse(root *etree.Element, ctx *requestContext, res storage.Resource, props []string) {
	rctx := &resolveContext{path: ctx.path, user: ctx.user}
	href := ""
	switch res := res.(type) {
	case *storage.Calendar:
		rctx.cal = res
		href = res.Href()
	case *storage.Item:
		rctx.item = res
		href = res.Href()
	}
	resp := xml.AddResponse(root, href)

	var found, missing []*etree.Element
	for _, tag := range props {
		if elem, err := resolveProp(tag, rctx).Get(); err == nil {
			found = append(found, elem)
		} else {
			prefix, local := xml.SplitTag(tag)
			missing = append(missing, xml.NewElement(prefix, local))
		}
	}
	addPropstatGroup(resp, found, http.StatusOK)
	if len(missing) > 0 {
		addPropstatGroup(resp, missing, http.StatusNotFound)
	}
}

func addPropstatGroup(resp *etree.Element, props []*etree.Element, code int) {
	propstat := resp.CreateElement("D:propstat")
	prop := propstat.CreateElement("D:prop")
	for _, p := range props {
		prop.AddChild(p)
	}
	propstat.CreateElement("D:status").SetText(xml.StatusLine(code))
}

// resolveContext carries the resource a property is computed for. Exactly
// one of cal/item is set.
type resolveContext struct {
	path string
	user string
	cal  *storage.Calendar
	item *storage.Item
}

func (rctx *resolveContext) etag() string {
	if rctx.cal != nil {
		return rctx.cal.ETag()
	}
	return rctx.item.ETag()
}

var errPropNotFound = errors.New("property not found")

func notFound() mo.Result[*etree.Element] {
	return mo.Err[*etree.Element](errPropNotFound)
}

// resolveProp computes one requested property. Computed properties take
// precedence; the collection property store is the last resort, and
// anything else lands in the 404 group.
func resolveProp(tag string, rctx *resolveContext) mo.Result[*etree.Element] {
	if resolver, ok := sharedResolvers[tag]; ok {
		return resolver(rctx)
	}
	if rctx.cal != nil {
		return resolveCalendarProp(tag, rctx)
	}
	return resolveItemProp(tag, rctx)
}

// hrefToRequestPath covers the identity discovery properties, which all
// answer an href equal to the request path.
func hrefToRequestPath(prefix, local string) func(*resolveContext) mo.Result[*etree.Element] {
	return func(rctx *resolveContext) mo.Result[*etree.Element] {
		elem := xml.NewElement(prefix, local)
		elem.CreateElement("D:href").SetText(rctx.path)
		return mo.Ok(elem)
	}
}

var sharedResolvers = map[string]func(*resolveContext) mo.Result[*etree.Element]{
	"D:getetag": func(rctx *resolveContext) mo.Result[*etree.Element] {
		elem := xml.NewElement("D", "getetag")
		elem.SetText(rctx.etag())
		return mo.Ok(elem)
	},
	"D:principal-URL":             hrefToRequestPath("D", "principal-URL"),
	"D:principal-collection-set":  hrefToRequestPath("D", "principal-collection-set"),
	"C:calendar-user-address-set": hrefToRequestPath("C", "calendar-user-address-set"),
	"C:calendar-home-set":         hrefToRequestPath("C", "calendar-home-set"),
	"C:supported-calendar-component-set": func(rctx *resolveContext) mo.Result[*etree.Element] {
		elem := xml.NewElement("C", "supported-calendar-component-set")
		for _, name := range []string{"VTODO", "VEVENT", "VJOURNAL"} {
			comp := elem.CreateElement("C:comp")
			comp.CreateAttr("name", name)
		}
		return mo.Ok(elem)
	},
	"D:current-user-principal": func(rctx *resolveContext) mo.Result[*etree.Element] {
		if rctx.user == "" {
			return notFound()
		}
		elem := xml.NewElement("D", "current-user-principal")
		elem.CreateElement("D:href").SetText("/" + rctx.user + "/")
		return mo.Ok(elem)
	},
	"D:current-user-privilege-set": func(rctx *resolveContext) mo.Result[*etree.Element] {
		elem := xml.NewElement("D", "current-user-privilege-set")
		privilege := elem.CreateElement("D:privilege")
		privilege.CreateElement("D:all")
		return mo.Ok(elem)
	},
	"D:supported-report-set": func(rctx *resolveContext) mo.Result[*etree.Element] {
		elem := xml.NewElement("D", "supported-report-set")
		for _, name := range []string{
			"principal-property-search", "sync-collection",
			"expand-property", "principal-search-property-set",
		} {
			supported := elem.CreateElement("D:supported-report")
			supported.CreateElement("D:report").SetText(name)
		}
		return mo.Ok(elem)
	},
}

func resolveCalendarProp(tag string, rctx *resolveContext) mo.Result[*etree.Element] {
	cal := rctx.cal
	switch tag {
	case "D:getcontenttype":
		elem := xml.NewElement("D", "getcontenttype")
		elem.SetText("text/calendar")
		return mo.Ok(elem)
	case "D:resourcetype":
		elem := xml.NewElement("D", "resourcetype")
		if isPrincipal(cal) {
			elem.CreateElement("D:principal")
		} else {
			elem.CreateElement("C:calendar")
		}
		elem.CreateElement("D:collection")
		return mo.Ok(elem)
	case "D:owner":
		if cal.Owner == "" {
			return notFound()
		}
		elem := xml.NewElement("D", "owner")
		elem.SetText("/" + cal.Owner + "/")
		return mo.Ok(elem)
	case "CS:getctag":
		elem := xml.NewElement("CS", "getctag")
		elem.SetText(cal.ETag())
		return mo.Ok(elem)
	case "C:calendar-timezone":
		text, err := storage.SerializeCalendar(cal.Headers, cal.Timezone)
		if err != nil {
			return mo.Err[*etree.Element](err)
		}
		elem := xml.NewElement("C", "calendar-timezone")
		elem.SetText(text)
		return mo.Ok(elem)
	}
	if value, ok := cal.Props[tag]; ok {
		prefix, local := xml.SplitTag(tag)
		elem := xml.NewElement(prefix, local)
		elem.SetText(value)
		return mo.Ok(elem)
	}
	return notFound()
}

func resolveItemProp(tag string, rctx *resolveContext) mo.Result[*etree.Element] {
	switch tag {
	case "D:getcontenttype":
		elem := xml.NewElement("D", "getcontenttype")
		elem.SetText("text/calendar; component=" + strings.ToLower(rctx.item.ComponentType()))
		return mo.Ok(elem)
	case "D:resourcetype":
		// Returned empty for non-collection resources.
		return mo.Ok(xml.NewElement("D", "resourcetype"))
	}
	return notFound()
}

// isPrincipal reports whether the collection is a principal home rather
// than a calendar, which is the case for single-segment paths.
func isPrincipal(cal *storage.Calendar) bool {
	return !strings.Contains(strings.Trim(cal.Path, "/"), "/")
}
