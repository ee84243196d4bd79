package taskrecords

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// PageSize is the number of entries per page.
const PageSize = 10

// MaxPage is the largest page whose offset fits in an int.
const MaxPage = math.MaxInt / PageSize

// Filter selects entries. Any non-empty field filter disables GlobalSearch.
type Filter struct {
	UUID         string `json:"uuid,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	Status       string `json:"status,omitempty"`
	User         string `json:"user,omitempty"`
	Campaign     string `json:"campaign,omitempty"`
	GlobalSearch string `json:"search,omitempty"`
}

// Field names accepted by SetField.
const (
	FieldUUID     = "uuid"
	FieldFileName = "file_name"
	FieldStatus   = "status"
	FieldUser     = "user"
	FieldCampaign = "campaign"
)

// Fields lists the filterable fields in display order.
var Fields = []string{FieldUUID, FieldFileName, FieldStatus, FieldUser, FieldCampaign}

// HasFieldFilter reports whether any field-specific filter is set.
func (f Filter) HasFieldFilter() bool {
	return f.UUID != "" || f.FileName != "" || f.Status != "" || f.User != "" || f.Campaign != ""
}

// IsZero reports whether f matches every entry.
func (f Filter) IsZero() bool {
	return !f.HasFieldFilter() && f.GlobalSearch == ""
}

// SetField returns a filter with only field set to value. An empty or
// unknown field sets GlobalSearch instead.
func SetField(field, value string) Filter {
	var f Filter
	switch field {
	case FieldUUID:
		f.UUID = value
	case FieldFileName:
		f.FileName = value
	case FieldStatus:
		f.Status = value
	case FieldUser:
		f.User = value
	case FieldCampaign:
		f.Campaign = value
	default:
		f.GlobalSearch = value
	}
	return f
}

// FilterFromQuery reads filter parameters from q.
func FilterFromQuery(q url.Values) Filter {
	return Filter{
		UUID:         q.Get(FieldUUID),
		FileName:     q.Get(FieldFileName),
		Status:       q.Get(FieldStatus),
		User:         q.Get(FieldUser),
		Campaign:     q.Get(FieldCampaign),
		GlobalSearch: q.Get("search"),
	}
}

// Encode writes f into q, dropping empty fields.
func (f Filter) Encode(q url.Values) {
	for k, v := range map[string]string{
		FieldUUID:     f.UUID,
		FieldFileName: f.FileName,
		FieldStatus:   f.Status,
		FieldUser:     f.User,
		FieldCampaign: f.Campaign,
		"search":      f.GlobalSearch,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
}

// ParsePage parses a zero-based page number. An empty value is page 0.
// Negative numbers and pages above MaxPage are rejected.
func ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 || page > MaxPage {
		return 0, &InvalidPageError{Value: raw}
	}
	return page, nil
}

// Page is one window of a filtered dataset.
type Page struct {
	Tasks   []Entry `json:"tasks"`
	HasMore bool    `json:"hasMore"`
	Total   int     `json:"total"`
}

// Apply filters entries and returns the requested page. It does not modify
// entries and keeps their order.
func Apply(entries []Entry, f Filter, page int) Page {
	matched := Match(entries, f)

	start := len(matched)
	if page = max(page, 0); page <= len(matched)/PageSize {
		start = page * PageSize
	}
	end := min(start+PageSize, len(matched))

	tasks := make([]Entry, end-start)
	copy(tasks, matched[start:end])
	return Page{
		Tasks:   tasks,
		HasMore: start+PageSize < len(matched),
		Total:   len(matched),
	}
}

// Match returns the entries selected by f. Field filters are plain
// substring tests on the text form of each field; GlobalSearch ignores case.
func Match(entries []Entry, f Filter) []Entry {
	if f.IsZero() {
		return entries
	}

	var pred func(Entry) bool
	if f.HasFieldFilter() {
		pred = func(e Entry) bool {
			return strings.Contains(e.UUID, f.UUID) &&
				strings.Contains(e.FileName, f.FileName) &&
				strings.Contains(e.Status, f.Status) &&
				strings.Contains(e.User, f.User) &&
				strings.Contains(e.Campaign.String(), f.Campaign)
		}
	} else {
		fold := cases.Fold()
		norm := func(s string) string { return fold.String(s) }
		term := norm(f.GlobalSearch)
		pred = func(e Entry) bool {
			for _, v := range []string{e.UUID, e.FileName, e.Status, e.User, e.Campaign.String()} {
				if strings.Contains(norm(v), term) {
					return true
				}
			}
			return false
		}
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}
