package pivot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/practicepulse/feestrategy/internal/filter"
	"github.com/practicepulse/feestrategy/internal/model"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestClassifySchedule(t *testing.T) {
	assert.Equal(t, precedenceCarrierSpecific, classifySchedule("DELTA DENTAL PPO", "DELTA DENTAL"))
	assert.Equal(t, precedenceGlobalFallback, classifySchedule("UCR 2024", "DELTA DENTAL"))
	assert.Equal(t, precedenceGlobalFallback, classifySchedule("default schedule", "DELTA DENTAL"))
	assert.Equal(t, precedenceLocationDefault, classifySchedule("WALK-IN CASH", "DELTA DENTAL"))
	assert.Equal(t, precedenceLocationDefault, classifySchedule("ANYTHING", ""))
}

func TestResolveFeeScheduleTakesCarrierSpecificOverUCR(t *testing.T) {
	snapshots := []model.FeeScheduleSnapshot{
		{
			CollectedAt: "2024-01-01",
			FeeSchedules: []model.Schedule{
				{Description: "UCR DEFAULT", Fees: []model.Fee{{ProcedureCode: "D0120", Amount: 90.0}}},
				{Description: "DELTA DENTAL PPO", Fees: []model.Fee{{ProcedureCode: "D0120", Amount: 65.0}}},
			},
		},
	}

	got := resolveFeeSchedule(snapshots, "Delta Dental", "D0120")
	require.NotNil(t, got)
	assert.Equal(t, 65.0, *got)
}

func TestResolveFeeScheduleTieBreaksOnCollectedAtDesc(t *testing.T) {
	snapshots := []model.FeeScheduleSnapshot{
		{CollectedAt: "2023-01-01", FeeSchedules: []model.Schedule{
			{Description: "UCR", Fees: []model.Fee{{ProcedureCode: "D0120", Amount: 80.0}}},
		}},
		{CollectedAt: "2024-06-01", FeeSchedules: []model.Schedule{
			{Description: "UCR", Fees: []model.Fee{{ProcedureCode: "D0120", Amount: 95.0}}},
		}},
	}

	got := resolveFeeSchedule(snapshots, "", "D0120")
	require.NotNil(t, got)
	assert.Equal(t, 95.0, *got)
}

func TestResolveFeeScheduleNoMatchIsNil(t *testing.T) {
	snapshots := []model.FeeScheduleSnapshot{
		{FeeSchedules: []model.Schedule{
			{Description: "UCR", Fees: []model.Fee{{ProcedureCode: "D0150", Amount: 80.0}}},
		}},
	}
	assert.Nil(t, resolveFeeSchedule(snapshots, "", "D0120"))
}

func TestDeriveMetricsZeroBilledYieldsZeroPctAndNilVariance(t *testing.T) {
	m := deriveMetrics(Metrics{Billed: 0, WriteOff: 50})
	assert.Zero(t, m.WriteOffPct)
	assert.Nil(t, m.ScheduleVariance)
}

func TestDeriveMetricsComputesWriteOffPctAndVariance(t *testing.T) {
	fee := 40.0
	m := deriveMetrics(Metrics{Billed: 100, WriteOff: 20, FeeScheduled: &fee})
	assert.InDelta(t, 20.0, m.WriteOffPct, 0.0001)
	require.NotNil(t, m.ScheduleVariance)
	assert.InDelta(t, 60.0, *m.ScheduleVariance, 0.0001)
}

func TestHasIssuesFlagsReconciliationMismatch(t *testing.T) {
	assert.False(t, hasIssues(Metrics{Billed: 150, Allowed: 95, Paid: 0, WriteOff: 55}))
	assert.True(t, hasIssues(Metrics{Billed: 150, Allowed: 95, Paid: 76, WriteOff: 55}))
}

func TestGroupLineItemsSumsAndBucketsByMonth(t *testing.T) {
	denver := mustLoc(t, "America/Denver")
	locID := bson.NewObjectID()

	items := []lineItem{
		{
			LocationID:      locID,
			ProcCode:        "D0120",
			CarrierName:     "Delta Dental",
			Billed:          100,
			Allowed:         80,
			Paid:            70,
			WriteOff:        20,
			DateReceivedRaw: "2024-03-15T00:00:00Z",
		},
		{
			LocationID:      locID,
			ProcCode:        "D0120",
			CarrierName:     "Delta Dental",
			Billed:          50,
			Allowed:         40,
			Paid:            35,
			WriteOff:        10,
			DateReceivedRaw: "2024-03-20T00:00:00Z",
		},
	}
	locations := map[bson.ObjectID]model.Location{
		locID: {ID: locID, Code: "LOC1", Name: "Main Street"},
	}

	rows := groupLineItems(items, locations, nil, denver, nil, nil)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "2024-03", row.Month)
	assert.Equal(t, 2, row.Metrics.ClaimCount)
	assert.InDelta(t, 150.0, row.Metrics.Billed, 0.0001)
	assert.InDelta(t, 30.0, row.Metrics.WriteOff, 0.0001)
}

func TestGroupLineItemsSkipsItemsWithUnknownLocation(t *testing.T) {
	items := []lineItem{{LocationID: bson.NewObjectID(), ProcCode: "D0120", DateReceivedRaw: "2024-01-01"}}
	rows := groupLineItems(items, map[bson.ObjectID]model.Location{}, nil, time.UTC, nil, nil)
	assert.Empty(t, rows)
}

func TestGroupLineItemsAppliesDateRange(t *testing.T) {
	locID := bson.NewObjectID()
	locations := map[bson.ObjectID]model.Location{locID: {ID: locID, Code: "LOC1"}}
	items := []lineItem{
		{LocationID: locID, ProcCode: "D0120", DateReceivedRaw: "2024-01-01T00:00:00Z", Billed: 10},
		{LocationID: locID, ProcCode: "D0120", DateReceivedRaw: "2024-06-01T00:00:00Z", Billed: 20},
	}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := groupLineItems(items, locations, nil, time.UTC, &start, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-06", rows[0].Month)
}

func TestApplyPostGroupFiltersMinCount(t *testing.T) {
	rows := []Row{
		{Carrier: "Delta", LocationCode: "LOC1", Procedure: "D0120", Metrics: Metrics{ClaimCount: 1}},
		{Carrier: "Delta", LocationCode: "LOC1", Procedure: "D0150", Metrics: Metrics{ClaimCount: 5}},
	}
	out := applyPostGroupFilters(rows, filter.Pivot{MinCount: 2})
	require.Len(t, out, 1)
	assert.Equal(t, "D0150", out[0].Procedure)
}

func TestApplyPostGroupFiltersIsCaseInsensitive(t *testing.T) {
	rows := []Row{{Carrier: "delta dental", LocationCode: "loc1", Procedure: "D0120"}}
	out := applyPostGroupFilters(rows, filter.Pivot{Carriers: []string{"DELTA DENTAL"}})
	assert.Len(t, out, 1)
}

func TestPaginateClampsOutOfRangePage(t *testing.T) {
	result := Result{Rows: []Row{{Procedure: "a"}, {Procedure: "b"}}}
	got := Paginate(result, 5, 10)
	assert.Empty(t, got.Rows)
}

func TestPaginateSlicesPage(t *testing.T) {
	result := Result{Rows: []Row{{Procedure: "a"}, {Procedure: "b"}, {Procedure: "c"}}}
	got := Paginate(result, 2, 2)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "c", got.Rows[0].Procedure)
}
