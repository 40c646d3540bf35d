//go:build integration

package pivot_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/practicepulse/feestrategy/internal/filter"
	"github.com/practicepulse/feestrategy/internal/pivot"
	"github.com/practicepulse/feestrategy/internal/store"
)

// TestPivotHappyPathAcrossLogicalDatabases seeds the three logical
// databases against a real Mongo instance and exercises the full pivot
// pipeline end to end, including the carrier-specific-over-UCR
// fee-schedule precedence rule.
func TestPivotHappyPathAcrossLogicalDatabases(t *testing.T) {
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	locationID := bson.NewObjectID()
	jobID := bson.NewObjectID()

	_, err = client.Database(store.DBRegistry).Collection("locations").InsertOne(ctx, bson.M{
		"_id": locationID, "code": "PROVO", "name": "Provo Clinic", "active": true,
	})
	require.NoError(t, err)

	_, err = client.Database(store.DBActivity).Collection("jobs").InsertOne(ctx, bson.M{
		"_id": jobID, "locationId": locationID,
		"payment": bson.M{"carrierName": "DELTA", "dateIssued": "2024-02-01"},
		"status":  "COMPLETE",
	})
	require.NoError(t, err)

	_, err = client.Database(store.DBActivity).Collection("processedclaims").InsertOne(ctx, bson.M{
		"job_id": jobID, "locationId": locationID,
		"data": bson.M{"patients": []bson.M{{
			"claims": []bson.M{{
				"date_received": "2024-02-01",
				"procedures": []bson.M{{
					"procCode": "D0120", "feeBilled": "150", "allowedAmount": "95",
					"insAmountPaid": "76", "writeOff": "55",
				}},
			}},
		}}},
	})
	require.NoError(t, err)

	_, err = client.Database(store.DBCrucible).Collection("PDC_fee_schedules").InsertOne(ctx, bson.M{
		"location_id": "PROVO",
		"collected_at": "2024-01-01",
		"fee_schedules": []bson.M{
			{"Description": "DELTA DENTAL PPO", "fees": []bson.M{{"ProcedureCode": "D0120", "Amount": 80.0}}},
			{"Description": "UCR FEE SCHEDULE", "fees": []bson.M{{"ProcedureCode": "D0120", "Amount": 100.0}}},
		},
	})
	require.NoError(t, err)

	adapter, err := store.Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close(ctx) })

	loc, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	engine := pivot.NewEngine(adapter, slog.New(slog.NewTextHandler(io.Discard, nil)), loc, false)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	result, err := engine.Run(ctx, filter.Pivot{
		Locations: []string{"PROVO"}, Start: &start, End: &end,
		Page: 1, Limit: filter.DefaultPivotLimit,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	require.Equal(t, "DELTA", row.Carrier)
	require.Equal(t, "PROVO", row.LocationCode)
	require.Equal(t, "2024-02", row.Month)
	require.NotNil(t, row.Metrics.FeeScheduled)
	require.Equal(t, 80.0, *row.Metrics.FeeScheduled)
	require.Equal(t, 1, row.Metrics.ClaimCount)
}
