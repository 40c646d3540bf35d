package pivot

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/practicepulse/feestrategy/internal/filter"
)

// lineItem is the flattened, job-joined, pre-group shape produced by the
// Mongo aggregation pipeline: one document per billed procedure. Monetary
// fields arrive already coerced to double; dates arrive in whatever
// native/string form the source documents used, since month bucketing
// happens client-side once a timezone is applied.
type lineItem struct {
	LocationID       bson.ObjectID `bson:"locationId"`
	ProcCode         string        `bson:"procCode"`
	CarrierName      string        `bson:"carrierName"`
	Billed           float64       `bson:"billed"`
	Allowed          float64       `bson:"allowed"`
	Paid             float64       `bson:"paid"`
	WriteOff         float64       `bson:"writeOff"`
	DateReceivedRaw  any           `bson:"dateReceivedRaw"`
	JobDateIssuedRaw any           `bson:"jobDateIssuedRaw"`
}

// lineItemBaseStages returns the flatten/discard-malformed/coerce/job-join
// stages (pipeline stages 1 through 4) shared by the full row pipeline and
// the data-quality count pipelines, built fresh on every call so appending
// to the result never aliases another caller's slice.
func lineItemBaseStages() mongo.Pipeline {
	return mongo.Pipeline{
		// Stage 1: keep only documents with a non-empty patients array.
		{{Key: "$match", Value: bson.D{
			{Key: "data.patients.0", Value: bson.D{{Key: "$exists", Value: true}}},
		}}},
		{{Key: "$unwind", Value: "$data.patients"}},
		{{Key: "$unwind", Value: "$data.patients.claims"}},
		{{Key: "$unwind", Value: "$data.patients.claims.procedures"}},
		// Flatten to one logical line item per downstream document.
		{{Key: "$project", Value: bson.D{
			{Key: "job_id", Value: 1},
			{Key: "locationId", Value: 1},
			{Key: "procCode", Value: "$data.patients.claims.procedures.procCode"},
			{Key: "feeBilledRaw", Value: "$data.patients.claims.procedures.feeBilled"},
			{Key: "allowedRaw", Value: "$data.patients.claims.procedures.allowedAmount"},
			{Key: "paidRaw", Value: "$data.patients.claims.procedures.insAmountPaid"},
			{Key: "writeOffRaw", Value: "$data.patients.claims.procedures.writeOff"},
			{Key: "dateReceivedRaw", Value: "$data.patients.claims.date_received"},
		}}},
		// Stage 2: discard malformed line items (no procCode).
		{{Key: "$match", Value: bson.D{
			{Key: "procCode", Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: ""}, {Key: "$ne", Value: nil}}},
		}}},
		// Stage 3: coerce monetary fields, 0 on error/null.
		{{Key: "$addFields", Value: bson.D{
			{Key: "billed", Value: toDouble("$feeBilledRaw")},
			{Key: "allowed", Value: toDouble("$allowedRaw")},
			{Key: "paid", Value: toDouble("$paidRaw")},
			{Key: "writeOff", Value: toDouble("$writeOffRaw")},
		}}},
		// Stage 4: one-to-one job join, same database.
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "jobs"},
			{Key: "localField", Value: "job_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "job"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$job"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "carrierName", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$job.payment.carrierName", ""}}}},
			{Key: "jobDateIssuedRaw", Value: "$job.payment.dateIssued"},
		}}},
	}
}

// dropEmptyStage is pipeline stage 5: it discards line items that carry
// neither a carrier name nor any positive monetary field.
func dropEmptyStage() bson.D {
	return bson.D{{Key: "$match", Value: bson.D{
		{Key: "$expr", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "$ne", Value: bson.A{"$carrierName", ""}}},
			bson.D{{Key: "$gt", Value: bson.A{"$billed", 0}}},
			bson.D{{Key: "$gt", Value: bson.A{"$allowed", 0}}},
			bson.D{{Key: "$gt", Value: bson.A{"$paid", 0}}},
			bson.D{{Key: "$gt", Value: bson.A{"$writeOff", 0}}},
		}}}},
	}}}
}

// buildPipeline assembles the Mongo aggregation program that flattens each
// claim into per-procedure line items, discards malformed ones, coerces
// monetary fields, joins the owning job, drops empty line items, and pushes
// down any carrier/procedure filter that can be applied this early without
// changing the final result.
//
// The job join ($lookup into activity.jobs) is a same-database join and so
// runs natively in Mongo; the registry and fee-schedule joins are
// cross-database and run client-side, resolved per line item while
// groupLineItems builds the groups.
func buildPipeline(f filter.Pivot) mongo.Pipeline {
	pipeline := append(lineItemBaseStages(), dropEmptyStage())

	if len(f.Carriers) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "$expr", Value: bson.D{{Key: "$in", Value: bson.A{
				bson.D{{Key: "$toUpper", Value: "$carrierName"}}, upperAll(f.Carriers),
			}}}},
		}}})
	}
	if len(f.Procedures) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "procCode", Value: bson.D{{Key: "$in", Value: f.Procedures}}},
		}}})
	}

	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.D{
		{Key: "_id", Value: 0},
		{Key: "locationId", Value: 1},
		{Key: "procCode", Value: 1},
		{Key: "carrierName", Value: 1},
		{Key: "billed", Value: 1},
		{Key: "allowed", Value: 1},
		{Key: "paid", Value: 1},
		{Key: "writeOff", Value: 1},
		{Key: "dateReceivedRaw", Value: 1},
		{Key: "jobDateIssuedRaw", Value: 1},
	}}})

	return pipeline
}

// toDouble coerces field to a double, defaulting to 0 on conversion error
// or null, using Mongo's own $convert operator.
func toDouble(field string) bson.D {
	return bson.D{{Key: "$convert", Value: bson.D{
		{Key: "input", Value: field},
		{Key: "to", Value: "double"},
		{Key: "onError", Value: 0},
		{Key: "onNull", Value: 0},
	}}}
}

func upperAll(ss []string) bson.A {
	out := make(bson.A, len(ss))
	for i, s := range ss {
		out[i] = strings.ToUpper(s)
	}
	return out
}

// lineItemCount decodes a single-document $count result.
type lineItemCount struct {
	N int `bson:"n"`
}

// rawLineItemCountPipeline counts every line item surviving flattening and
// the malformed-procCode discard (stages 1-4), before the drop-empty stage
// — the denominator for the data-quality retention sample. It ignores any
// request filter, since retention measures data quality, not a particular
// request's selectivity.
func rawLineItemCountPipeline() mongo.Pipeline {
	return append(lineItemBaseStages(), bson.D{{Key: "$count", Value: "n"}})
}

// retainedLineItemCountPipeline counts line items that additionally survive
// the drop-empty stage (stage 5) — the numerator for the retention sample.
func retainedLineItemCountPipeline() mongo.Pipeline {
	stages := append(lineItemBaseStages(), dropEmptyStage())
	return append(stages, bson.D{{Key: "$count", Value: "n"}})
}
