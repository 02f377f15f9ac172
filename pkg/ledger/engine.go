package ledger

import (
	"fmt"

	"github.com/mcclellann/loanledger/pkg/models"
	"github.com/shopspring/decimal"
)

// emiRatioPrecision absorbs the residue of the 16-place EMI division so that a balance of
// exactly N installments counts as N, not N+1.
const emiRatioPrecision = 10

var monthsInYear = decimal.NewFromInt(12)

// Balance is the point-in-time state of a loan derived from its payments.
type Balance struct {
	AmountPaid    decimal.Decimal
	BalanceAmount decimal.Decimal
	EMIsLeft      int64
}

// QuoteLoan computes the simple-interest totals for a loan:
//
//	interest = principal * years * rate/100
//	total    = principal + interest
//	emi      = total / (years * 12)
//
// No intermediate value is rounded.
func QuoteLoan(principal decimal.Decimal, periodYears int, annualRatePercent decimal.Decimal) (models.LoanQuote, error) {
	switch {
	case !principal.IsPositive():
		return models.LoanQuote{}, fmt.Errorf("%w: principal must be > 0, got %s", ErrInvalidLoanParameters, principal)
	case periodYears <= 0:
		return models.LoanQuote{}, fmt.Errorf("%w: loan period must be > 0 years, got %d", ErrInvalidLoanParameters, periodYears)
	case !annualRatePercent.IsPositive():
		return models.LoanQuote{}, fmt.Errorf("%w: interest rate must be > 0, got %s", ErrInvalidLoanParameters, annualRatePercent)
	}

	years := decimal.NewFromInt(int64(periodYears))
	interest := principal.Mul(years).Mul(annualRatePercent.Shift(-2))
	total := principal.Add(interest)
	return models.LoanQuote{
		TotalAmount:   total,
		TotalInterest: interest,
		MonthlyEMI:    total.Div(years.Mul(monthsInYear)),
	}, nil
}

// DeriveBalance computes amount paid, outstanding balance and remaining installments.
// Over-payment is absorbed: the balance floors at zero and no credit is tracked.
func DeriveBalance(totalAmount, monthlyEMI, paymentsSum decimal.Decimal) (Balance, error) {
	if !monthlyEMI.IsPositive() {
		return Balance{}, fmt.Errorf("%w: monthly EMI must be > 0, got %s", ErrInvalidLoanState, monthlyEMI)
	}

	balance := decimal.Max(decimal.Zero, totalAmount.Sub(paymentsSum))
	var emisLeft int64
	if !balance.IsZero() {
		emisLeft = balance.Div(monthlyEMI).Round(emiRatioPrecision).Ceil().IntPart()
	}
	return Balance{
		AmountPaid:    paymentsSum,
		BalanceAmount: balance,
		EMIsLeft:      emisLeft,
	}, nil
}

// IsPaidOff reports whether nothing remains to be paid.
func IsPaidOff(balanceAmount decimal.Decimal) bool {
	return !balanceAmount.IsPositive()
}

// SumPayments adds up the amounts of the given payments.
func SumPayments(payments []*models.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}
