package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	CustomerID string    `json:"customer_id"` // Assigned by the onboarding system
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "ACTIVE"
	LoanStatusPaidOff LoanStatus = "PAID_OFF"
)

type Loan struct {
	LoanID          string          `json:"loan_id"`
	CustomerID      string          `json:"customer_id"` // Not required to reference a stored customer
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`  // Principal plus simple interest for the full term
	InterestRate    decimal.Decimal `json:"interest_rate"` // Annual percent, e.g. 10 for 10%
	LoanPeriodYears int             `json:"loan_period_years"`
	MonthlyEMI      decimal.Decimal `json:"monthly_emi"`
	Status          LoanStatus      `json:"status"` // Only moves ACTIVE -> PAID_OFF
	CreatedAt       time.Time       `json:"created_at"`
}

type PaymentType string

const (
	PaymentTypeEMI     PaymentType = "EMI"
	PaymentTypeLumpSum PaymentType = "LUMP_SUM"
)

// Valid reports whether t is one of the known payment types.
func (t PaymentType) Valid() bool {
	return t == PaymentTypeEMI || t == PaymentTypeLumpSum
}

type Payment struct {
	PaymentID   string          `json:"payment_id"`
	LoanID      string          `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentType PaymentType     `json:"payment_type"`
	PaymentDate time.Time       `json:"payment_date"`
}
