// Package model defines the BSON document shapes read from the three
// logical databases (activity, registry, crucible). Monetary and date
// fields are decoded as any rather than float64/time.Time
// because source documents store them as either strings or native types
// depending on which system wrote them; internal/coerce centralizes the
// conversion.
package model

import "go.mongodb.org/mongo-driver/v2/bson"

// Location is a registry.locations document. Code is the cross-database
// join key; ID is the internal identity used by activity.processedclaims.
type Location struct {
	ID     bson.ObjectID `bson:"_id"`
	Code   string        `bson:"code"`
	Name   string        `bson:"name"`
	State  string        `bson:"state"`
	Active bool          `bson:"active"`
}

// Payment is the embedded payment envelope on an activity.jobs document.
type Payment struct {
	CarrierName string `bson:"carrierName"`
	DateIssued  any    `bson:"dateIssued"`
	CheckAmt    any    `bson:"checkAmt"`
}

// Job is an activity.jobs document.
type Job struct {
	ID         bson.ObjectID `bson:"_id"`
	LocationID bson.ObjectID `bson:"locationId"`
	Payment    Payment       `bson:"payment"`
	Status     string        `bson:"status"`
}

// Procedure is one billed procedure line item nested inside a claim.
type Procedure struct {
	ProcCode      string `bson:"procCode"`
	FeeBilled     any    `bson:"feeBilled"`
	AllowedAmount any    `bson:"allowedAmount"`
	InsAmountPaid any    `bson:"insAmountPaid"`
	WriteOff      any    `bson:"writeOff"`
	DateOfService any    `bson:"dateOfService"`
}

// Claim is one EOB claim nested inside a patient.
type Claim struct {
	DateReceived any         `bson:"date_received"`
	ProviderNPI  string      `bson:"provider_npi"`
	Procedures   []Procedure `bson:"procedures"`
}

// Patient is one patient record nested inside a processed claim document.
type Patient struct {
	Claims []Claim `bson:"claims"`
}

// ClaimData is the nested `data` field of a processedclaims document.
type ClaimData struct {
	Patients []Patient `bson:"patients"`
}

// ProcessedClaim is an activity.processedclaims document — one per
// processed EOB.
type ProcessedClaim struct {
	ID         bson.ObjectID `bson:"_id"`
	JobID      bson.ObjectID `bson:"job_id"`
	LocationID bson.ObjectID `bson:"locationId"`
	Data       ClaimData     `bson:"data"`
}

// Fee is one procedure-code/amount pair inside a fee schedule.
type Fee struct {
	ProcedureCode string `bson:"ProcedureCode"`
	Amount        any    `bson:"Amount"`
}

// Schedule is one named fee schedule (carrier-specific, location-default,
// or UCR/global) inside a PDC_fee_schedules snapshot.
type Schedule struct {
	Description string `bson:"Description"`
	Fees        []Fee  `bson:"fees"`
}

// FeeScheduleSnapshot is a crucible.PDC_fee_schedules document: one
// location's fee-schedule history at a point in time.
type FeeScheduleSnapshot struct {
	ID           bson.ObjectID `bson:"_id"`
	LocationID   string        `bson:"location_id"`
	FeeSchedules []Schedule    `bson:"fee_schedules"`
	CollectedAt  any           `bson:"collected_at"`
}

// ProviderStatus is a crucible.PDC_provider_status document — one per
// (provider_npi, location_id, carrier) triple.
type ProviderStatus struct {
	ID                 bson.ObjectID `bson:"_id"`
	ProviderNPI        string        `bson:"provider_npi"`
	ProviderName       string        `bson:"provider_name"`
	TIN                string        `bson:"tin"`
	LocationID         string        `bson:"location_id"`
	Carrier            string        `bson:"carrier"`
	Plan               string        `bson:"plan"`
	Status             string        `bson:"status"`
	EffectiveDate      any           `bson:"effective_date"`
	TermDate           any           `bson:"term_date"`
	LastVerifiedAt     any           `bson:"last_verified_at"`
	VerificationSource string        `bson:"verification_source"`
	SourceURL          string        `bson:"source_url"`
	Notes              string        `bson:"notes"`
	IsManualOverride   bool          `bson:"is_manual_override"`
	OverrideBy         string        `bson:"override_by"`
	OverrideAt         any           `bson:"override_at"`
}
