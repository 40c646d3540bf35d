// Package csvexport renders report rows as RFC 4180 CSV with a fixed
// column order per surface, built on encoding/csv so quoting and line
// endings follow the standard's own rules rather than a hand-rolled
// escaper.
package csvexport

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/practicepulse/feestrategy/internal/credentialing"
	"github.com/practicepulse/feestrategy/internal/pivot"
)

// noDataBody is emitted verbatim, with no header row, when a surface's row
// set is empty.
const noDataBody = "No data available"

// PivotColumns is the fixed column order for the Fee-Strategy Pivot CSV.
var PivotColumns = []string{
	"carrier", "locationId", "locationCode", "locationName", "procedure", "month",
	"billed", "allowed", "paid", "writeOff", "writeOffPct", "feeScheduled",
	"scheduleVariance", "claimCount", "hasIssues",
}

// CredentialingColumns is the fixed column order for the Credentialing CSV.
var CredentialingColumns = []string{
	"provider_npi", "provider_name", "tin", "location_id", "carrier", "plan",
	"status", "effective_date", "term_date", "last_verified_at",
	"verification_source", "source_url", "notes", "is_manual_override",
	"override_by", "override_at", "alerts",
}

// WritePivot streams the pivot row set to w as CSV, or the literal
// "No data available" body if rows is empty.
func WritePivot(w io.Writer, rows []pivot.Row) error {
	if len(rows) == 0 {
		_, err := io.WriteString(w, noDataBody)
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(PivotColumns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Carrier,
			r.LocationID,
			r.LocationCode,
			r.LocationName,
			r.Procedure,
			r.Month,
			formatFloat(r.Metrics.Billed),
			formatFloat(r.Metrics.Allowed),
			formatFloat(r.Metrics.Paid),
			formatFloat(r.Metrics.WriteOff),
			formatFloat(r.Metrics.WriteOffPct),
			formatFloatPtr(r.Metrics.FeeScheduled),
			formatFloatPtr(r.Metrics.ScheduleVariance),
			strconv.Itoa(r.Metrics.ClaimCount),
			formatBool(r.HasIssues),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCredentialing streams the credentialing row set to w as CSV, or the
// literal "No data available" body if rows is empty.
func WriteCredentialing(w io.Writer, rows []credentialing.Row) error {
	if len(rows) == 0 {
		_, err := io.WriteString(w, noDataBody)
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CredentialingColumns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ProviderNPI,
			r.ProviderName,
			r.TIN,
			r.LocationID,
			r.Carrier,
			r.Plan,
			r.Status,
			formatTimePtr(r.EffectiveDate),
			formatTimePtr(r.TermDate),
			formatTimePtr(r.LastVerifiedAt),
			r.VerificationSource,
			r.SourceURL,
			r.Notes,
			formatBool(r.IsManualOverride),
			r.OverrideBy,
			formatTimePtr(r.OverrideAt),
			strings.Join(r.Alerts, ";"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
