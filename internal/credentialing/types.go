// Package credentialing implements a per-(provider, location, carrier)
// status report augmented with cross-database alert evidence.
package credentialing

import "time"

// Alert names.
const (
	AlertNetworkMismatch  = "NETWORK_MISMATCH"
	AlertExpiringSoon     = "EXPIRING_SOON"
	AlertStaleData        = "STALE_DATA"
	AlertPendingEffective = "PENDING_EFFECTIVE"
)

// Row is one PDC_provider_status record enriched with location_name and
// the computed alerts set.
type Row struct {
	ProviderNPI        string     `json:"providerNpi"`
	ProviderName       string     `json:"providerName"`
	TIN                string     `json:"tin"`
	LocationID         string     `json:"locationId"`
	LocationName       string     `json:"locationName"`
	Carrier            string     `json:"carrier"`
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	EffectiveDate      *time.Time `json:"effectiveDate"`
	TermDate           *time.Time `json:"termDate"`
	LastVerifiedAt     *time.Time `json:"lastVerifiedAt"`
	VerificationSource string     `json:"verificationSource"`
	SourceURL          string     `json:"sourceUrl"`
	Notes              string     `json:"notes"`
	IsManualOverride   bool       `json:"isManualOverride"`
	OverrideBy         string     `json:"overrideBy"`
	OverrideAt         *time.Time `json:"overrideAt"`
	Alerts             []string   `json:"alerts"`
}

// Result is the full JSON payload for GET /api/credentialing/status.
type Result struct {
	Rows []Row `json:"rows"`
}
