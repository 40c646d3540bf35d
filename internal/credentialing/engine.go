package credentialing

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/practicepulse/feestrategy/internal/apperr"
	"github.com/practicepulse/feestrategy/internal/coerce"
	"github.com/practicepulse/feestrategy/internal/filter"
	"github.com/practicepulse/feestrategy/internal/model"
	"github.com/practicepulse/feestrategy/internal/store"
)

// evidenceWindow is the lookback window for the NETWORK_MISMATCH alert's
// recent-paid-claims evidence.
const evidenceWindow = 90 * 24 * time.Hour

// Engine builds and executes the Credentialing pipeline.
type Engine struct {
	store *store.Adapter
}

// NewEngine constructs a credentialing Engine.
func NewEngine(st *store.Adapter) *Engine {
	return &Engine{store: st}
}

// Run executes the credentialing report for f.
func (e *Engine) Run(ctx context.Context, f filter.Credentialing) (Result, error) {
	now := time.Now().UTC()

	var statuses []model.ProviderStatus
	if err := e.store.Find(ctx, e.store.Crucible(), "PDC_provider_status", preLookupFilter(f), &statuses); err != nil {
		return Result{}, apperr.StoreUnavailable(err)
	}

	locationNames, err := e.lookupLocationNames(ctx, statuses)
	if err != nil {
		return Result{}, apperr.StoreUnavailable(err)
	}

	evidence, err := e.lookupNetworkMismatchEvidence(ctx, statuses, now)
	if err != nil {
		return Result{}, apperr.StoreUnavailable(err)
	}

	rows := buildRows(statuses, locationNames, evidence, now)
	rows = applyPostFilters(rows, f)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.ProviderName != b.ProviderName:
			return a.ProviderName < b.ProviderName
		case a.LocationID != b.LocationID:
			return a.LocationID < b.LocationID
		default:
			return a.Carrier < b.Carrier
		}
	})

	return Result{Rows: rows}, nil
}

// preLookupFilter builds the pre-lookup match on location_id, carrier,
// and status.
func preLookupFilter(f filter.Credentialing) bson.M {
	m := bson.M{}
	if len(f.Locations) > 0 {
		m["location_id"] = bson.M{"$in": f.Locations}
	}
	if len(f.Carriers) > 0 {
		m["carrier"] = bson.M{"$in": f.Carriers}
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	return m
}

func (e *Engine) lookupLocationNames(ctx context.Context, statuses []model.ProviderStatus) (map[string]string, error) {
	seen := make(map[string]struct{})
	codes := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s.LocationID == "" {
			continue
		}
		if _, ok := seen[s.LocationID]; ok {
			continue
		}
		seen[s.LocationID] = struct{}{}
		codes = append(codes, s.LocationID)
	}
	if len(codes) == 0 {
		return map[string]string{}, nil
	}

	var docs []model.Location
	if err := e.store.Find(ctx, e.store.Registry(), "locations", bson.M{"code": bson.M{"$in": codes}}, &docs); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.Code] = d.Name
	}
	return out, nil
}

func (e *Engine) lookupNetworkMismatchEvidence(ctx context.Context, statuses []model.ProviderStatus, now time.Time) (map[string]bool, error) {
	seen := make(map[string]struct{})
	npis := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s.Status != "OON" || s.ProviderNPI == "" {
			continue
		}
		if _, ok := seen[s.ProviderNPI]; ok {
			continue
		}
		seen[s.ProviderNPI] = struct{}{}
		npis = append(npis, s.ProviderNPI)
	}
	if len(npis) == 0 {
		return map[string]bool{}, nil
	}

	var matches []npiMatch
	cutoff := now.Add(-evidenceWindow)
	pipeline := networkMismatchEvidencePipeline(npis, cutoff)
	if err := e.store.Aggregate(ctx, e.store.Activity(), "processedclaims", pipeline, &matches); err != nil {
		return nil, err
	}

	out := make(map[string]bool, len(matches))
	for _, m := range matches {
		out[m.NPI] = true
	}
	return out, nil
}

// buildRows performs enrichment and alert derivation. It is a pure
// function over its inputs so it can be exercised by fixtures without a
// live store.
func buildRows(statuses []model.ProviderStatus, locationNames map[string]string, evidence map[string]bool, now time.Time) []Row {
	rows := make([]Row, 0, len(statuses))
	for _, s := range statuses {
		effectiveDate := optionalTime(s.EffectiveDate)
		termDate := optionalTime(s.TermDate)
		lastVerifiedAt := optionalTime(s.LastVerifiedAt)

		rows = append(rows, Row{
			ProviderNPI:        s.ProviderNPI,
			ProviderName:       s.ProviderName,
			TIN:                s.TIN,
			LocationID:         s.LocationID,
			LocationName:       locationNames[s.LocationID],
			Carrier:            s.Carrier,
			Plan:               s.Plan,
			Status:             s.Status,
			EffectiveDate:      effectiveDate,
			TermDate:           termDate,
			LastVerifiedAt:     lastVerifiedAt,
			VerificationSource: s.VerificationSource,
			SourceURL:          s.SourceURL,
			Notes:              s.Notes,
			IsManualOverride:   s.IsManualOverride,
			OverrideBy:         s.OverrideBy,
			OverrideAt:         optionalTime(s.OverrideAt),
			Alerts:             deriveAlerts(s.Status, effectiveDate, termDate, lastVerifiedAt, evidence[s.ProviderNPI], now),
		})
	}
	return rows
}

func optionalTime(v any) *time.Time {
	t, ok := coerce.Time(v)
	if !ok {
		return nil
	}
	return &t
}

// applyPostFilters applies the post-computation issuesOnly and
// last_verified_at range filters.
func applyPostFilters(rows []Row, f filter.Credentialing) []Row {
	out := rows[:0]
	for _, r := range rows {
		if f.IssuesOnly && len(r.Alerts) == 0 {
			continue
		}
		if f.Start != nil && (r.LastVerifiedAt == nil || r.LastVerifiedAt.Before(*f.Start)) {
			continue
		}
		if f.End != nil && (r.LastVerifiedAt == nil || r.LastVerifiedAt.After(*f.End)) {
			continue
		}
		out = append(out, r)
	}
	return out
}
