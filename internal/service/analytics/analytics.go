// Package analytics derives the financial and operational figures shown on
// the operations dashboard from the billing partition.
// Amounts are in IDR; margin is total charge minus activity-based unit cost.
package analytics

import (
	"context"
	"fmt"

	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/model"
)

// BillMargin is the profitability of one bill.
type BillMargin struct {
	BillingID int64   `json:"billing_id"`
	PatientID string  `json:"patient_id"`
	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
	Margin    float64 `json:"margin"`
}

// Summary is the dashboard rollup.
type Summary struct {
	TotalRevenue   float64                   `json:"total_revenue"`
	TotalCost      float64                   `json:"total_cost"`
	AvgUnitCostABC float64                   `json:"avg_unit_cost_abc"`
	Bills          []BillMargin              `json:"bills"`
	ClaimStatus    map[model.ClaimStatus]int `json:"claim_status"`
	PatientCount   int                       `json:"patient_count"`
	VerifiedClaims int                       `json:"verified_claims"`
}

// Compute builds a Summary from billing rows in source order. The average
// unit cost of an empty partition is zero. Every known claim status is
// present in ClaimStatus, counted or not.
func Compute(bills []model.BillingRecord, patientCount int) Summary {
	s := Summary{
		Bills: make([]BillMargin, 0, len(bills)),
		ClaimStatus: map[model.ClaimStatus]int{
			model.ClaimPaid:       0,
			model.ClaimProcessing: 0,
			model.ClaimDenied:     0,
		},
		PatientCount: patientCount,
	}
	for _, b := range bills {
		s.TotalRevenue += b.TotalCharge
		s.TotalCost += b.UnitCostABC
		s.ClaimStatus[b.InsuranceClaimStatus]++
		if b.InsuranceVerified {
			s.VerifiedClaims++
		}
		s.Bills = append(s.Bills, BillMargin{
			BillingID: b.BillingID,
			PatientID: b.PatientID,
			Revenue:   b.TotalCharge,
			Cost:      b.UnitCostABC,
			Margin:    b.TotalCharge - b.UnitCostABC,
		})
	}
	if len(bills) > 0 {
		s.AvgUnitCostABC = s.TotalCost / float64(len(bills))
	}
	return s
}

// Summarize reads the billing and patient partitions and computes a Summary.
func Summarize(ctx context.Context, src dataset.Source) (Summary, error) {
	bills, err := src.Billing(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: billing: %w", err)
	}
	patients, err := src.Patients(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: patients: %w", err)
	}
	return Compute(bills, len(patients)), nil
}
