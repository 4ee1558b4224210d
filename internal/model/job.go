package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// JobRecord is a scraped posting exactly as the backend returned it.
// Its keys are not fixed, so every displayed attribute is read through
// a precedence list of candidate keys.
type JobRecord map[string]any

var (
	titleKeys       = []string{"Position Title", "title", "Title"}
	companyKeys     = []string{"Vendor", "Company", "company", "vendor"}
	locationKeys    = []string{"Raw Location", "Location", "location"}
	dateKeys        = []string{"Post Date", "posted_date", "date"}
	descriptionKeys = []string{"Description", "description"}
	keyKeys         = []string{"Dedupe Key", "Posting ID", "id"}
	urlKeys         = []string{"Link", "URL", "url"}
)

const NoTitle = "(no title)"

func (j JobRecord) Title() string {
	if v := j.first(titleKeys); v != "" {
		return v
	}
	return NoTitle
}

func (j JobRecord) Company() string     { return j.first(companyKeys) }
func (j JobRecord) Location() string    { return j.first(locationKeys) }
func (j JobRecord) Date() string        { return j.first(dateKeys) }
func (j JobRecord) Description() string { return j.first(descriptionKeys) }
func (j JobRecord) Key() string         { return j.first(keyKeys) }
func (j JobRecord) URL() string         { return j.first(urlKeys) }

// PostedAt parses Date. The zero time is returned for missing or
// unparseable dates.
func (j JobRecord) PostedAt() time.Time {
	return ParseDate(j.Date())
}

func (j JobRecord) first(keys []string) string {
	for _, k := range keys {
		v, ok := j[k]
		if !ok {
			continue
		}
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
	"01/02/2006",
}

func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
