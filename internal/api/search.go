package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/erazemk/biotrack/internal/model"
)

const defaultLimit = 10

type filterTerm struct {
	field string
	value string
}

// query is a parsed list request.
type query struct {
	filters []filterTerm
	sort    string
	desc    bool
	page    int
	limit   int
}

// field extracts a searchable value from an item.
type field[T any] func(T) string

var shipmentFields = map[string]field[model.Shipment]{
	"courierName":    func(s model.Shipment) string { return s.CourierName },
	"trackingNumber": func(s model.Shipment) string { return s.TrackingNumber },
	"state":          func(s model.Shipment) string { return string(s.State) },
}

var specimenFields = map[string]field[model.ShipmentSpecimen]{
	"inventoryId": func(ss model.ShipmentSpecimen) string { return ss.Specimen.InventoryID },
	"state":       func(ss model.ShipmentSpecimen) string { return string(ss.State) },
}

// parseQuery reads filter, sort, page and limit. Filter terms are
// "field::value" joined with ";"; a "-" sort prefix sorts descending.
func parseQuery(values url.Values) (query, error) {
	q := query{page: 1, limit: defaultLimit}

	if f := values.Get("filter"); f != "" {
		for _, term := range strings.Split(f, ";") {
			name, value, ok := strings.Cut(term, "::")
			if !ok || name == "" {
				return query{}, badRequest("invalid filter term: %q", term)
			}
			q.filters = append(q.filters, filterTerm{field: name, value: value})
		}
	}

	q.sort = values.Get("sort")
	if strings.HasPrefix(q.sort, "-") {
		q.desc = true
		q.sort = q.sort[1:]
	}

	if p := values.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return query{}, badRequest("invalid page: %q", p)
		}
		q.page = n
	}
	if l := values.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			return query{}, badRequest("invalid limit: %q", l)
		}
		q.limit = n
	}
	return q, nil
}

func sortBy[T any](items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}

// paginate filters, sorts and slices items. items must already be in the
// default order.
func paginate[T any](items []T, q query, fields map[string]field[T]) (model.PagedReply[T], error) {
	for _, f := range q.filters {
		get, ok := fields[f.field]
		if !ok {
			return model.PagedReply[T]{}, badRequest("invalid filter field: %s", f.field)
		}
		kept := items[:0]
		for _, item := range items {
			if get(item) == f.value {
				kept = append(kept, item)
			}
		}
		items = kept
	}

	if q.sort != "" {
		get, ok := fields[q.sort]
		if !ok {
			return model.PagedReply[T]{}, badRequest("invalid sort field: %s", q.sort)
		}
		sort.SliceStable(items, func(i, j int) bool {
			if q.desc {
				return get(items[i]) > get(items[j])
			}
			return get(items[i]) < get(items[j])
		})
	}

	// page and limit come from the client, so no product or sum of them may overflow.
	total := len(items)
	maxPages := total / q.limit
	if total%q.limit != 0 {
		maxPages++
	}
	page := []T{}
	offset := total
	if q.page-1 <= total/q.limit {
		offset = (q.page - 1) * q.limit
		page = items[offset : offset+min(q.limit, total-offset)]
	}
	return model.PagedReply[T]{
		Items:    page,
		Offset:   offset,
		Total:    total,
		MaxPages: maxPages,
	}, nil
}
