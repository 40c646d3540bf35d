package pivot

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/practicepulse/feestrategy/internal/apperr"
	"github.com/practicepulse/feestrategy/internal/coerce"
	"github.com/practicepulse/feestrategy/internal/filter"
	"github.com/practicepulse/feestrategy/internal/model"
	"github.com/practicepulse/feestrategy/internal/store"
	"github.com/practicepulse/feestrategy/internal/telemetry"
)

// monthLayout is the Go reference layout for the %Y-%m bucket key.
const monthLayout = "2006-01"

// samplingRate is the fraction of requests that trigger the data-quality
// side channel absent the debug override.
const samplingRate = 0.01

// Engine builds and executes the Fee-Strategy pipeline.
type Engine struct {
	store      *store.Adapter
	logger     *slog.Logger
	location   *time.Location
	forceDebug bool
}

// NewEngine constructs a pivot Engine. location fixes the month-bucketing
// timezone; forceDebug forces the data-quality side channel on every
// request instead of sampling it.
func NewEngine(st *store.Adapter, logger *slog.Logger, location *time.Location, forceDebug bool) *Engine {
	return &Engine{store: st, logger: logger, location: location, forceDebug: forceDebug}
}

// Run executes the full pivot for f and returns every matching row,
// unpaginated — pagination is applied by the caller only for the JSON
// surface; the CSV surface ignores page/limit entirely. Summary's
// TotalRows always reflects the full filtered-and-grouped set.
func (e *Engine) Run(ctx context.Context, f filter.Pivot) (Result, error) {
	var items []lineItem
	if err := e.store.Aggregate(ctx, e.store.Activity(), "processedclaims", buildPipeline(f), &items); err != nil {
		return Result{}, wrapStoreErr(err)
	}

	go e.sampleDataQuality()

	locations, err := e.lookupLocations(ctx, items)
	if err != nil {
		return Result{}, wrapStoreErr(err)
	}

	feeSnapshots, err := e.lookupFeeSchedules(ctx, locations)
	if err != nil {
		return Result{}, wrapStoreErr(err)
	}

	rows := groupLineItems(items, locations, feeSnapshots, e.location, f.Start, f.End)
	rows = applyPostGroupFilters(rows, f)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.Carrier != b.Carrier:
			return a.Carrier < b.Carrier
		case a.LocationCode != b.LocationCode:
			return a.LocationCode < b.LocationCode
		case a.Procedure != b.Procedure:
			return a.Procedure < b.Procedure
		default:
			return a.Month < b.Month
		}
	})

	return Result{
		Rows: rows,
		Summary: Summary{
			TotalRows:   len(rows),
			DateRange:   DateRange{Start: f.Start, End: f.End},
			LastUpdated: time.Now().UTC(),
		},
	}, nil
}

// Paginate slices an already-computed Result's rows to one page. Callers
// computing the CSV surface must not call this, since CSV ignores
// page/limit.
func Paginate(result Result, page, limit int) Result {
	start := (page - 1) * limit
	if start < 0 || start >= len(result.Rows) {
		result.Rows = []Row{}
		return result
	}
	end := start + limit
	if end > len(result.Rows) {
		end = len(result.Rows)
	}
	result.Rows = result.Rows[start:end]
	return result
}

func (e *Engine) lookupLocations(ctx context.Context, items []lineItem) (map[bson.ObjectID]model.Location, error) {
	seen := make(map[bson.ObjectID]struct{})
	ids := make([]bson.ObjectID, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.LocationID]; ok {
			continue
		}
		seen[it.LocationID] = struct{}{}
		ids = append(ids, it.LocationID)
	}
	if len(ids) == 0 {
		return map[bson.ObjectID]model.Location{}, nil
	}

	var docs []model.Location
	if err := e.store.Find(ctx, e.store.Registry(), "locations", bson.M{"_id": bson.M{"$in": ids}}, &docs); err != nil {
		return nil, err
	}

	out := make(map[bson.ObjectID]model.Location, len(docs))
	for _, d := range docs {
		out[d.ID] = d
	}
	return out, nil
}

func (e *Engine) lookupFeeSchedules(ctx context.Context, locations map[bson.ObjectID]model.Location) (map[string][]model.FeeScheduleSnapshot, error) {
	seen := make(map[string]struct{})
	codes := make([]string, 0, len(locations))
	for _, loc := range locations {
		if loc.Code == "" {
			continue
		}
		if _, ok := seen[loc.Code]; ok {
			continue
		}
		seen[loc.Code] = struct{}{}
		codes = append(codes, loc.Code)
	}
	if len(codes) == 0 {
		return map[string][]model.FeeScheduleSnapshot{}, nil
	}

	var docs []model.FeeScheduleSnapshot
	if err := e.store.Find(ctx, e.store.Crucible(), "PDC_fee_schedules", bson.M{"location_id": bson.M{"$in": codes}}, &docs); err != nil {
		return nil, err
	}

	out := make(map[string][]model.FeeScheduleSnapshot)
	for _, d := range docs {
		out[d.LocationID] = append(out[d.LocationID], d)
	}
	return out, nil
}

// groupSum accumulates the running totals for one
// (carrier, locationId, locationCode, locationName, procedure, month) key.
type groupSum struct {
	row          Row
	feeScheduled *float64
	feeSet       bool
}

// groupLineItems performs the location join, month bucketing, grouping
// with summed monetary fields, and derived metrics. It is a pure function
// over its inputs so it can be exercised by fixtures without a live store.
func groupLineItems(items []lineItem, locations map[bson.ObjectID]model.Location, feeSnapshots map[string][]model.FeeScheduleSnapshot, loc *time.Location, start, end *time.Time) []Row {
	groups := make(map[string]*groupSum)
	order := make([]string, 0)

	for _, it := range items {
		location, ok := locations[it.LocationID]
		if !ok {
			continue
		}

		dosRecv, dateOnly, ok := resolveDate(it)
		if !ok {
			continue
		}
		if start != nil && dosRecv.Before(*start) {
			continue
		}
		if end != nil && dosRecv.After(*end) {
			continue
		}

		month := dosRecv.Format(monthLayout)
		if !dateOnly {
			month = dosRecv.In(loc).Format(monthLayout)
		}
		key := it.CarrierName + "\x1f" + location.ID.Hex() + "\x1f" + location.Code + "\x1f" + location.Name + "\x1f" + it.ProcCode + "\x1f" + month

		g, ok := groups[key]
		if !ok {
			g = &groupSum{row: Row{
				Carrier:      it.CarrierName,
				LocationID:   location.ID.Hex(),
				LocationCode: location.Code,
				LocationName: location.Name,
				Procedure:    it.ProcCode,
				Month:        month,
			}}
			groups[key] = g
			order = append(order, key)
		}

		g.row.Metrics.Billed += it.Billed
		g.row.Metrics.Allowed += it.Allowed
		g.row.Metrics.Paid += it.Paid
		g.row.Metrics.WriteOff += it.WriteOff
		g.row.Metrics.ClaimCount++

		if !g.feeSet {
			g.feeScheduled = resolveFeeSchedule(feeSnapshots[location.Code], it.CarrierName, it.ProcCode)
			g.feeSet = true
		}
	}

	rows := make([]Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.row.Metrics.FeeScheduled = g.feeScheduled
		g.row.Metrics = deriveMetrics(g.row.Metrics)
		g.row.HasIssues = hasIssues(g.row.Metrics)
		rows = append(rows, g.row)
	}
	return rows
}

// hasIssues reports whether the three disposition buckets fail to
// reconcile to billed within a dollar.
func hasIssues(m Metrics) bool {
	return math.Abs(m.Billed-(m.Allowed+m.Paid+m.WriteOff)) > 1.0
}

// resolveDate picks the date-of-service/receipt used for month bucketing
// and date-range filtering: the claim's date_received if present, else the
// job's payment.dateIssued. The second return reports whether the winning
// value was a bare calendar date rather than a timestamp, since a bare
// date names a calendar day directly and must bucket without a timezone
// shift.
func resolveDate(it lineItem) (t time.Time, dateOnly, ok bool) {
	if t, ok := coerce.Time(it.DateReceivedRaw); ok {
		return t, coerce.IsDateOnly(it.DateReceivedRaw), true
	}
	t, ok = coerce.Time(it.JobDateIssuedRaw)
	return t, coerce.IsDateOnly(it.JobDateIssuedRaw), ok
}

// deriveMetrics computes a group's derived percentage fields.
func deriveMetrics(m Metrics) Metrics {
	if m.Billed > 0 {
		m.WriteOffPct = (m.WriteOff / m.Billed) * 100
		if m.FeeScheduled != nil {
			variance := ((m.Billed - *m.FeeScheduled) / m.Billed) * 100
			m.ScheduleVariance = &variance
		}
	}
	return m
}

// applyPostGroupFilters applies the location/carrier/procedure/minCount
// filters. Carrier and procedure are already applied in the Mongo pipeline
// when present; re-checking here is harmless and keeps this function
// correct standalone regardless of where a given filter was pushed.
func applyPostGroupFilters(rows []Row, f filter.Pivot) []Row {
	out := rows[:0]
	for _, r := range rows {
		if len(f.Locations) > 0 && !containsFold(f.Locations, r.LocationCode) {
			continue
		}
		if len(f.Carriers) > 0 && !containsFold(f.Carriers, r.Carrier) {
			continue
		}
		if len(f.Procedures) > 0 && !containsFold(f.Procedures, r.Procedure) {
			continue
		}
		if r.Metrics.ClaimCount < f.MinCount {
			continue
		}
		out = append(out, r)
	}
	return out
}

// wrapStoreErr classifies a store-layer error into StoreTimeout or
// StoreUnavailable depending on whether it stemmed from a context
// deadline.
func wrapStoreErr(err error) *apperr.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.StoreTimeout(err)
	}
	return apperr.StoreUnavailable(err)
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// sampleDataQuality is a data-quality side channel sampled at 1% (or
// forced by DebugPivot): it runs two dedicated count-only aggregations to
// measure the retention ratio between raw line items and items that
// survived the drop-empty stage, independent of any carrier/procedure
// filter the triggering request happened to apply. It must never block or
// affect the response path, so it owns a detached context rather than the
// request's.
func (e *Engine) sampleDataQuality() {
	if !e.forceDebug && rand.Float64() >= samplingRate {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	total, err := e.countLineItems(ctx, rawLineItemCountPipeline())
	if err != nil {
		e.logger.Warn("pivot data quality sample: counting raw line items", "error", err)
		return
	}
	retained, err := e.countLineItems(ctx, retainedLineItemCountPipeline())
	if err != nil {
		e.logger.Warn("pivot data quality sample: counting retained line items", "error", err)
		return
	}

	var retentionPct float64
	if total > 0 {
		retentionPct = (float64(retained) / float64(total)) * 100
	}

	e.logger.Info("pivot data quality sample",
		"total", total,
		"retained", retained,
		"dropped", total-retained,
		"retentionPct", math.Round(retentionPct*100)/100,
	)
	telemetry.PivotRetentionRatio.Set(retentionPct / 100)
}

// countLineItems runs a $count-terminated aggregation and returns the
// count, or 0 if the pipeline produced no documents (an empty collection).
func (e *Engine) countLineItems(ctx context.Context, pipeline mongo.Pipeline) (int, error) {
	var docs []lineItemCount
	if err := e.store.Aggregate(ctx, e.store.Activity(), "processedclaims", pipeline, &docs); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	return docs[0].N, nil
}
