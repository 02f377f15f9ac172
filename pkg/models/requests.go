package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanCreationRequest struct {
	CustomerID         string          `json:"customer_id"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	LoanPeriodYears    int             `json:"loan_period_years"`
	InterestRateYearly decimal.Decimal `json:"interest_rate_yearly"`
}

type LoanCreationResponse struct {
	LoanID             string          `json:"loan_id"`
	CustomerID         string          `json:"customer_id"`
	TotalAmountPayable decimal.Decimal `json:"total_amount_payable"`
	MonthlyEMI         decimal.Decimal `json:"monthly_emi"`
}

type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentType PaymentType     `json:"payment_type"`
}

type PaymentResponse struct {
	PaymentID        string          `json:"payment_id"`
	LoanID           string          `json:"loan_id"`
	Message          string          `json:"message"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	EMIsLeft         int64           `json:"emis_left"`
}

// LedgerTransaction is one payment as it appears in a loan's ledger.
type LedgerTransaction struct {
	TransactionID string          `json:"transaction_id"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Type          PaymentType     `json:"type"`
}

type LedgerResponse struct {
	LoanID        string              `json:"loan_id"`
	CustomerID    string              `json:"customer_id"`
	Principal     decimal.Decimal     `json:"principal"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	MonthlyEMI    decimal.Decimal     `json:"monthly_emi"`
	AmountPaid    decimal.Decimal     `json:"amount_paid"`
	BalanceAmount decimal.Decimal     `json:"balance_amount"`
	EMIsLeft      int64               `json:"emis_left"`
	Status        LoanStatus          `json:"status"`
	Transactions  []LedgerTransaction `json:"transactions"`
}

type CustomerOverviewLoan struct {
	LoanID        string          `json:"loan_id"`
	Principal     decimal.Decimal `json:"principal"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	EMIAmount     decimal.Decimal `json:"emi_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	EMIsLeft      int64           `json:"emis_left"`
	Status        LoanStatus      `json:"status"`
}

type CustomerOverviewResponse struct {
	CustomerID string                 `json:"customer_id"`
	TotalLoans int                    `json:"total_loans"`
	Loans      []CustomerOverviewLoan `json:"loans"`
}

type OnboardCustomerRequest struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
}

type QuoteRequest struct {
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	LoanPeriodYears    int             `json:"loan_period_years"`
	InterestRateYearly decimal.Decimal `json:"interest_rate_yearly"`
}

// LoanQuote is the simple-interest breakdown for a prospective loan.
type LoanQuote struct {
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	MonthlyEMI    decimal.Decimal `json:"monthly_emi"`
}
