// Package pivot implements the Fee-Strategy Pivot: the
// Carrier x Location x Procedure x Month aggregation of claim line items,
// enriched with the applicable scheduled fee and derived metrics.
package pivot

import "time"

// Metrics holds the numeric fields nested under a Row's "metrics" key in
// the JSON surface.
type Metrics struct {
	Billed           float64  `json:"billed"`
	Allowed          float64  `json:"allowed"`
	Paid             float64  `json:"paid"`
	WriteOff         float64  `json:"writeOff"`
	WriteOffPct      float64  `json:"writeOffPct"`
	FeeScheduled     *float64 `json:"feeScheduled"`
	ScheduleVariance *float64 `json:"scheduleVariance"`
	ClaimCount       int      `json:"claimCount"`
}

// Row is one Carrier x Location x Procedure x Month group in the
// Fee-Strategy Pivot.
type Row struct {
	Carrier      string  `json:"carrier"`
	LocationID   string  `json:"locationId"`
	LocationCode string  `json:"locationCode"`
	LocationName string  `json:"locationName"`
	Procedure    string  `json:"procedure"`
	Month        string  `json:"month"`
	Metrics      Metrics `json:"metrics"`
	HasIssues    bool    `json:"hasIssues"`
}

// DateRange echoes the effective date bounds applied to the request.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Summary accompanies the row set in the JSON surface.
type Summary struct {
	TotalRows   int       `json:"totalRows"`
	DateRange   DateRange `json:"dateRange"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Result is the full JSON payload for GET /api/fee-strategy/pivot.
type Result struct {
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}
