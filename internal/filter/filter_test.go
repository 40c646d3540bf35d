package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveArrayBracketForm(t *testing.T) {
	q := url.Values{"locations[]": {"PROVO", "VEGAS"}}
	assert.Equal(t, []string{"PROVO", "VEGAS"}, resolveArray(q, "locations"))
}

func TestResolveArrayRepeatedForm(t *testing.T) {
	q := url.Values{"locations": {"PROVO", "VEGAS"}}
	assert.Equal(t, []string{"PROVO", "VEGAS"}, resolveArray(q, "locations"))
}

func TestResolveArrayCommaForm(t *testing.T) {
	q := url.Values{"locations": {"PROVO,VEGAS"}}
	assert.Equal(t, []string{"PROVO", "VEGAS"}, resolveArray(q, "locations"))
}

func TestResolveArraySingleValue(t *testing.T) {
	q := url.Values{"locations": {"PROVO"}}
	assert.Equal(t, []string{"PROVO"}, resolveArray(q, "locations"))
}

func TestResolveArrayAbsentIsNil(t *testing.T) {
	assert.Nil(t, resolveArray(url.Values{}, "locations"))
}

func TestResolveArrayBracketFormTakesPrecedenceOverRepeated(t *testing.T) {
	q := url.Values{"locations[]": {"A"}, "locations": {"B", "C"}}
	assert.Equal(t, []string{"A"}, resolveArray(q, "locations"))
}

func TestNormalizePivotDefaults(t *testing.T) {
	f := NormalizePivot(url.Values{})
	assert.Equal(t, 0, f.MinCount)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPivotLimit, f.Limit)
	assert.Nil(t, f.Start)
	assert.Nil(t, f.Locations)
}

func TestNormalizePivotIllegibleIntegerFallsBackToDefault(t *testing.T) {
	f := NormalizePivot(url.Values{"page": {"not-a-number"}})
	assert.Equal(t, 1, f.Page)
}

func TestNormalizePivotUnparseableDateIsAbsent(t *testing.T) {
	f := NormalizePivot(url.Values{"start": {"not-a-date"}})
	assert.Nil(t, f.Start)
}

func TestNormalizeCredentialingIssuesOnlyRequiresLiteralTrue(t *testing.T) {
	assert.True(t, NormalizeCredentialing(url.Values{"issuesOnly": {"true"}}).IssuesOnly)
	assert.False(t, NormalizeCredentialing(url.Values{"issuesOnly": {"1"}}).IssuesOnly)
	assert.False(t, NormalizeCredentialing(url.Values{}).IssuesOnly)
}

func TestNormalizeCredentialingUppercasesStatus(t *testing.T) {
	f := NormalizeCredentialing(url.Values{"status": {"active"}})
	assert.Equal(t, "ACTIVE", f.Status)
}

func TestPivotCanonicalMapOmitsUnsetFields(t *testing.T) {
	f := NormalizePivot(url.Values{})
	m := f.CanonicalMap()
	_, hasStart := m["start"]
	_, hasLocations := m["locations"]
	assert.False(t, hasStart)
	assert.False(t, hasLocations)
}

func TestPivotCanonicalMapIsOrderIndependent(t *testing.T) {
	a := NormalizePivot(url.Values{"locations[]": {"PROVO", "VEGAS"}, "carriers": {"DELTA"}})
	b := NormalizePivot(url.Values{"carriers": {"DELTA"}, "locations[]": {"PROVO", "VEGAS"}})
	require.Equal(t, a.CanonicalMap(), b.CanonicalMap())
}

func TestNormalizePivotIsIdempotent(t *testing.T) {
	q := url.Values{"locations": {"PROVO,VEGAS"}, "carriers[]": {"DELTA"}, "minCount": {"3"}}
	first := NormalizePivot(q)
	reserialized := url.Values{
		"locations": first.Locations,
		"carriers":  first.Carriers,
		"minCount":  {"3"},
	}
	second := NormalizePivot(reserialized)
	assert.Equal(t, first.CanonicalMap(), second.CanonicalMap())
}
