// Package filter parses a bag of query parameters — accepting repeated,
// bracketed, and comma-separated array forms — into the canonical filter
// records consumed by the Pivot and Credentialing engines. Normalization
// never fails; illegible input degrades to an unfiltered or defaulted
// field.
package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPivotLimit is the row cap applied to the JSON pivot surface.
	DefaultPivotLimit = 20000
	dateLayout        = "2006-01-02"
)

// Pivot is the canonical filter record for the Fee-Strategy Pivot surface.
type Pivot struct {
	Start      *time.Time
	End        *time.Time
	Locations  []string
	Carriers   []string
	Procedures []string
	MinCount   int
	Page       int
	Limit      int
}

// Credentialing is the canonical filter record for the Credentialing
// Status Report surface.
type Credentialing struct {
	Start      *time.Time
	End        *time.Time
	Locations  []string
	Carriers   []string
	Status     string
	IssuesOnly bool
}

// NormalizePivot parses request query parameters into a Pivot filter.
func NormalizePivot(q url.Values) Pivot {
	start, end := dateRange(q)
	return Pivot{
		Start:      start,
		End:        end,
		Locations:  resolveArray(q, "locations"),
		Carriers:   resolveArray(q, "carriers"),
		Procedures: resolveArray(q, "procedures"),
		MinCount:   intParam(q, "minCount", 0),
		Page:       maxInt(intParam(q, "page", 1), 1),
		Limit:      maxInt(intParam(q, "limit", DefaultPivotLimit), 1),
	}
}

// NormalizeCredentialing parses request query parameters into a
// Credentialing filter.
func NormalizeCredentialing(q url.Values) Credentialing {
	start, end := dateRange(q)
	return Credentialing{
		Start:      start,
		End:        end,
		Locations:  resolveArray(q, "locations"),
		Carriers:   resolveArray(q, "carriers"),
		Status:     strings.ToUpper(strings.TrimSpace(singleParam(q, "status"))),
		IssuesOnly: boolParam(q, "issuesOnly"),
	}
}

func dateRange(q url.Values) (*time.Time, *time.Time) {
	return dateParam(q, "start"), dateParam(q, "end")
}

// resolveArray implements the array-parameter resolution order:
//  1. N[] present -> use it verbatim.
//  2. N present as a repeated (multi-value) parameter -> use it verbatim.
//  3. N present as a single string containing a comma -> split on commas.
//  4. N present as a single string -> wrap as a one-element list.
//
// Absence of all forms yields nil, which the engines interpret as
// "no filter on this dimension."
func resolveArray(q url.Values, name string) []string {
	if v, ok := q[name+"[]"]; ok {
		return v
	}
	v, ok := q[name]
	if !ok || len(v) == 0 {
		return nil
	}
	if len(v) > 1 {
		return v
	}
	s := v[0]
	if strings.Contains(s, ",") {
		return strings.Split(s, ",")
	}
	return []string{s}
}

func singleParam(q url.Values, name string) string {
	v, ok := q[name]
	if !ok || len(v) == 0 {
		return ""
	}
	return v[0]
}

// boolParam accepts only the literal "true"; anything else, including
// absence, yields false.
func boolParam(q url.Values, name string) bool {
	return singleParam(q, name) == "true"
}

// intParam parses an integer parameter, falling back to def on absence or
// parse failure — normalization never raises an error.
func intParam(q url.Values, name string, def int) int {
	s := singleParam(q, name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// dateParam parses an ISO calendar date (YYYY-MM-DD), returning nil on
// absence or parse failure.
func dateParam(q url.Values, name string) *time.Time {
	s := singleParam(q, name)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CanonicalMap returns a key-ordered representation of the filter suitable
// for fingerprinting: semantically equal filters — regardless
// of the order their query parameters arrived in — must serialize
// identically. encoding/json sorts map keys, so building a plain map here
// is sufficient; unset fields are omitted rather than zero-valued so that
// "absent" and "explicitly empty" never collide.
func (p Pivot) CanonicalMap() map[string]any {
	m := map[string]any{
		"minCount": p.MinCount,
		"page":     p.Page,
		"limit":    p.Limit,
	}
	putTime(m, "start", p.Start)
	putTime(m, "end", p.End)
	putStrings(m, "locations", p.Locations)
	putStrings(m, "carriers", p.Carriers)
	putStrings(m, "procedures", p.Procedures)
	return m
}

// CanonicalMap returns a key-ordered representation of the filter suitable
// for fingerprinting.
func (c Credentialing) CanonicalMap() map[string]any {
	m := map[string]any{
		"issuesOnly": c.IssuesOnly,
	}
	putTime(m, "start", c.Start)
	putTime(m, "end", c.End)
	putStrings(m, "locations", c.Locations)
	putStrings(m, "carriers", c.Carriers)
	if c.Status != "" {
		m["status"] = c.Status
	}
	return m
}

func putTime(m map[string]any, key string, t *time.Time) {
	if t != nil {
		m[key] = t.Format(dateLayout)
	}
}

func putStrings(m map[string]any, key string, ss []string) {
	if len(ss) > 0 {
		m[key] = ss
	}
}
