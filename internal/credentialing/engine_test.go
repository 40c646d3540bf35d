package credentialing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practicepulse/feestrategy/internal/filter"
	"github.com/practicepulse/feestrategy/internal/model"
)

func TestDeriveAlertsActiveNoIssuesIsEmpty(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lastVerified := now
	alerts := deriveAlerts("ACTIVE", nil, nil, &lastVerified, false, now)
	assert.Empty(t, alerts)
}

func TestDeriveAlertsNetworkMismatchRequiresOONAndEvidence(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	assert.Contains(t, deriveAlerts("OON", nil, nil, nil, true, now), AlertNetworkMismatch)
	assert.NotContains(t, deriveAlerts("OON", nil, nil, nil, false, now), AlertNetworkMismatch)
	assert.NotContains(t, deriveAlerts("ACTIVE", nil, nil, nil, true, now), AlertNetworkMismatch)
}

func TestDeriveAlertsExpiringSoonWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 0, 20)
	far := now.AddDate(0, 0, 45)
	past := now.AddDate(0, 0, -1)

	assert.Contains(t, deriveAlerts("ACTIVE", nil, &soon, nil, false, now), AlertExpiringSoon)
	assert.NotContains(t, deriveAlerts("ACTIVE", nil, &far, nil, false, now), AlertExpiringSoon)
	assert.NotContains(t, deriveAlerts("ACTIVE", nil, &past, nil, false, now), AlertExpiringSoon)
}

func TestDeriveAlertsStaleData(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	stale := now.AddDate(0, 0, -45)
	fresh := now.AddDate(0, 0, -1)

	assert.Contains(t, deriveAlerts("ACTIVE", nil, nil, &stale, false, now), AlertStaleData)
	assert.NotContains(t, deriveAlerts("ACTIVE", nil, nil, &fresh, false, now), AlertStaleData)
}

func TestDeriveAlertsPendingEffective(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -10)

	assert.Contains(t, deriveAlerts("PENDING", &future, nil, nil, false, now), AlertPendingEffective)
	assert.NotContains(t, deriveAlerts("PENDING", &past, nil, nil, false, now), AlertPendingEffective)
	assert.NotContains(t, deriveAlerts("ACTIVE", &future, nil, nil, false, now), AlertPendingEffective)
}

func TestBuildRowsEnrichesLocationNameAndComposesAlerts(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	statuses := []model.ProviderStatus{
		{ProviderNPI: "2221112223", ProviderName: "Dr. Ada Lovelace", LocationID: "VEGAS", Carrier: "AETNA", Status: "OON"},
	}
	locationNames := map[string]string{"VEGAS": "Vegas Clinic"}
	evidence := map[string]bool{"2221112223": true}

	rows := buildRows(statuses, locationNames, evidence, now)
	require.Len(t, rows, 1)
	assert.Equal(t, "Vegas Clinic", rows[0].LocationName)
	assert.Contains(t, rows[0].Alerts, AlertNetworkMismatch)
}

func TestApplyPostFiltersIssuesOnly(t *testing.T) {
	rows := []Row{
		{ProviderName: "A", Alerts: nil},
		{ProviderName: "B", Alerts: []string{AlertStaleData}},
	}
	out := applyPostFilters(rows, filter.Credentialing{IssuesOnly: true})
	require.Len(t, out, 1)
	assert.Equal(t, "B", out[0].ProviderName)
}

func TestApplyPostFiltersLastVerifiedRangeExcludesMissing(t *testing.T) {
	verified := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{ProviderName: "A", LastVerifiedAt: &verified},
		{ProviderName: "B", LastVerifiedAt: nil},
	}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := applyPostFilters(rows, filter.Credentialing{Start: &start})
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].ProviderName)
}

func TestIssuesOnlyFilterKeepsOnlyRowsWithAlerts(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	statuses := []model.ProviderStatus{
		{ProviderNPI: "1", ProviderName: "Expiring Provider", Status: "ACTIVE", TermDate: now.AddDate(0, 0, 20).Format(time.RFC3339)},
		{ProviderNPI: "2", ProviderName: "Stale Provider", Status: "ACTIVE", LastVerifiedAt: now.AddDate(0, 0, -45).Format(time.RFC3339)},
		{ProviderNPI: "3", ProviderName: "Pending Provider", Status: "PENDING", EffectiveDate: now.AddDate(0, 0, 10).Format(time.RFC3339)},
		{ProviderNPI: "4", ProviderName: "Clean Provider", Status: "ACTIVE", LastVerifiedAt: now.Format(time.RFC3339)},
	}

	rows := buildRows(statuses, map[string]string{}, map[string]bool{}, now)
	filtered := applyPostFilters(rows, filter.Credentialing{IssuesOnly: true})
	assert.Len(t, filtered, 3)
}
