package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/model"
)

func TestSummarizeDefaultDataset(t *testing.T) {
	s, err := Summarize(context.Background(), dataset.Default())
	require.NoError(t, err)

	assert.InDelta(t, 1650000, s.TotalRevenue, 0.001)
	assert.InDelta(t, 1270000, s.TotalCost, 0.001)
	assert.InDelta(t, 635000, s.AvgUnitCostABC, 0.001)
	assert.Equal(t, 4, s.PatientCount)
	assert.Equal(t, 2, s.VerifiedClaims)

	require.Len(t, s.Bills, 2)
	assert.Equal(t, BillMargin{BillingID: 9001, PatientID: "P-2024-001", Revenue: 450000, Cost: 320000, Margin: 130000}, s.Bills[0])
	assert.Equal(t, int64(9002), s.Bills[1].BillingID)
	assert.InDelta(t, 250000, s.Bills[1].Margin, 0.001)

	assert.Equal(t, 1, s.ClaimStatus[model.ClaimPaid])
	assert.Equal(t, 1, s.ClaimStatus[model.ClaimProcessing])
	assert.Equal(t, 0, s.ClaimStatus[model.ClaimDenied])
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, 0)
	assert.Zero(t, s.TotalRevenue)
	assert.Zero(t, s.AvgUnitCostABC)
	assert.NotNil(t, s.Bills)
	assert.Empty(t, s.Bills)
	assert.Len(t, s.ClaimStatus, 3)
}

func TestComputeNegativeMargin(t *testing.T) {
	s := Compute([]model.BillingRecord{
		{BillingID: 1, TotalCharge: 100, UnitCostABC: 250, InsuranceClaimStatus: model.ClaimDenied},
	}, 1)
	require.Len(t, s.Bills, 1)
	assert.InDelta(t, -150, s.Bills[0].Margin, 0.001)
	assert.Equal(t, 1, s.ClaimStatus[model.ClaimDenied])
}
