package domain

// Customer is the raw record the feature extractor works from.
// It mirrors the profile shape produced by the portfolio ingestion side:
// bureau score, product holdings, external stress (EESS) indicators, and
// the computed financial/behavioral metrics.
type Customer struct {
	ID               string           `json:"id"`
	Name             string           `json:"name,omitempty"`
	Sector           string           `json:"sector,omitempty"`
	CreditScore      int              `json:"creditScore"`
	Products         []Product        `json:"products"`
	EESS             EESSData         `json:"eess"`
	FinancialMetrics FinancialMetrics `json:"financialMetrics"`
}

// Product is a single credit or deposit holding. Amount and Outstanding
// are pointers because not every product type carries them.
type Product struct {
	Type        string   `json:"type"`
	EMI         *float64 `json:"emi,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Outstanding *float64 `json:"outstanding,omitempty"`
}

// EESSData holds the external economic stress signals attached to a customer.
type EESSData struct {
	SectorRisk           float64         `json:"sectorRisk"`           // 0-1
	RegionalUnemployment float64         `json:"regionalUnemployment"` // percent
	MacroIndicators      MacroIndicators `json:"macroIndicators"`
}

// MacroIndicators carries macro-level stress inputs.
type MacroIndicators struct {
	Inflation float64 `json:"inflation"` // percent
}

// FinancialMetrics groups the computed per-customer metrics.
type FinancialMetrics struct {
	Ratios            Ratios            `json:"ratios"`
	BehavioralMetrics BehavioralMetrics `json:"behavioralMetrics"`
	Liquidity         Liquidity         `json:"liquidity"`
	Income            Income            `json:"income"`
}

// Ratios are the core capacity ratios.
type Ratios struct {
	PTI                float64 `json:"pti"`
	DTI                float64 `json:"dti"`
	CreditUtilization  float64 `json:"creditUtilization"`
	BalanceStressRatio float64 `json:"balanceStressRatio"` // savings buffer
}

// BehavioralMetrics are payment-behavior counters over recent months.
type BehavioralMetrics struct {
	LatePaymentsLast6M    int     `json:"latePaymentsLast6M"`
	MissedEMICountLast3M  int     `json:"missedEMICountLast3M"`
	TransactionVolatility float64 `json:"transactionVolatility"`
}

// Liquidity tracks savings movement.
type Liquidity struct {
	SavingsChange float64 `json:"savingsChange"` // percent, negative = drain
}

// Income describes the salary stream.
type Income struct {
	DelayDays int     `json:"delayDays"`
	AvgSalary float64 `json:"avgSalary"` // monthly
}
