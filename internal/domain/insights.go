package domain

import "github.com/shopspring/decimal"

// OrderInsights summarizes recent order activity. Numeric fields are always
// populated; Summary and KeyFindings come from the analytics collaborator
// when it is available.
type OrderInsights struct {
	Summary            string          `json:"summary"`
	KeyFindings        []string        `json:"keyFindings"`
	TotalRequestedTons decimal.Decimal `json:"totalRequestedTons"`
	TotalSuppliedTons  decimal.Decimal `json:"totalSuppliedTons"`
	AvgFillRate        decimal.Decimal `json:"avgFillRate"`
	AvgDeliveryCost    decimal.Decimal `json:"avgDeliveryCost"`
	MedianDeliveryCost decimal.Decimal `json:"medianDeliveryCost"`
}
