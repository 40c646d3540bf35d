package credentialing

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// networkMismatchEvidencePipeline finds the distinct provider_npis among
// npis that have at least one recent, paid line item in
// activity.processedclaims. The match binds only provider_npi; a claim's
// location_id and carrier are not part of the join even though both
// fields exist on the credentialing side, since a provider can bill
// through a claim path that doesn't share either value with the
// credentialing record being evaluated.
func networkMismatchEvidencePipeline(npis []string, cutoff time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "data.patients.claims.provider_npi", Value: bson.D{{Key: "$in", Value: npis}}},
		}}},
		{{Key: "$unwind", Value: "$data.patients"}},
		{{Key: "$unwind", Value: "$data.patients.claims"}},
		{{Key: "$match", Value: bson.D{
			{Key: "data.patients.claims.provider_npi", Value: bson.D{{Key: "$in", Value: npis}}},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "dateReceivedParsed", Value: bson.D{{Key: "$convert", Value: bson.D{
				{Key: "input", Value: "$data.patients.claims.date_received"},
				{Key: "to", Value: "date"},
				{Key: "onError", Value: nil},
				{Key: "onNull", Value: nil},
			}}}},
		}}},
		{{Key: "$match", Value: bson.D{
			{Key: "dateReceivedParsed", Value: bson.D{{Key: "$gte", Value: cutoff}}},
		}}},
		{{Key: "$unwind", Value: "$data.patients.claims.procedures"}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "paidAmount", Value: bson.D{{Key: "$convert", Value: bson.D{
				{Key: "input", Value: "$data.patients.claims.procedures.insAmountPaid"},
				{Key: "to", Value: "double"},
				{Key: "onError", Value: 0},
				{Key: "onNull", Value: 0},
			}}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "paidAmount", Value: bson.D{{Key: "$gt", Value: 0}}}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$data.patients.claims.provider_npi"}}}},
	}
}

type npiMatch struct {
	NPI string `bson:"_id"`
}
