package ledger

import (
	"testing"

	"github.com/mcclellann/loanledger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func TestQuoteLoan(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		years     int
		rate      string
		total     string
		interest  string
		emi       string
	}{
		{name: "two years at ten percent", principal: "100000", years: 2, rate: "10", total: "120000", interest: "20000", emi: "5000"},
		{name: "fractional rate", principal: "1000", years: 1, rate: "12.5", total: "1125", interest: "125", emi: "93.75"},
		{name: "long term", principal: "250000", years: 30, rate: "4", total: "550000", interest: "300000", emi: "1527.7777777777777778"},
		{name: "small rate", principal: "1", years: 1, rate: "0.1", total: "1.001", interest: "0.001", emi: "0.0834166666666667"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := QuoteLoan(dec(tt.principal), tt.years, dec(tt.rate))
			require.NoError(t, err)
			assertDecimal(t, tt.total, q.TotalAmount, "total")
			assertDecimal(t, tt.interest, q.TotalInterest, "interest")
			assertDecimal(t, tt.emi, q.MonthlyEMI, "emi")

			// total = principal * (1 + years*rate/100)
			factor := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(tt.years)).Mul(dec(tt.rate)).Div(decimal.NewFromInt(100)))
			assertDecimal(t, dec(tt.principal).Mul(factor).String(), q.TotalAmount, "closed form")
		})
	}
}

func TestQuoteLoan_InvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		years     int
		rate      string
	}{
		{name: "zero principal", principal: "0", years: 1, rate: "10"},
		{name: "negative principal", principal: "-5", years: 1, rate: "10"},
		{name: "zero period", principal: "1000", years: 0, rate: "10"},
		{name: "negative period", principal: "1000", years: -2, rate: "10"},
		{name: "zero rate", principal: "1000", years: 1, rate: "0"},
		{name: "negative rate", principal: "1000", years: 1, rate: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := QuoteLoan(dec(tt.principal), tt.years, dec(tt.rate))
			assert.ErrorIs(t, err, ErrInvalidLoanParameters)
		})
	}
}

func TestDeriveBalance(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		emi      string
		paid     string
		balance  string
		emisLeft int64
	}{
		{name: "nothing paid", total: "120000", emi: "5000", paid: "0", balance: "120000", emisLeft: 24},
		{name: "one emi", total: "120000", emi: "5000", paid: "5000", balance: "115000", emisLeft: 23},
		{name: "partial installment counts as one", total: "120000", emi: "5000", paid: "7000", balance: "113000", emisLeft: 23},
		{name: "exact payoff", total: "120000", emi: "5000", paid: "120000", balance: "0", emisLeft: 0},
		{name: "overpayment clamps to zero", total: "120000", emi: "5000", paid: "150000", balance: "0", emisLeft: 0},
		{name: "repeating emi", total: "1100", emi: "91.6666666666666667", paid: "0", balance: "1100", emisLeft: 12},
		{name: "repeating emi truncated down", total: "1000", emi: "83.3333333333333333", paid: "0", balance: "1000", emisLeft: 12},
		{name: "tiny remainder", total: "1000", emi: "83.3333333333333333", paid: "999.99", balance: "0.01", emisLeft: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := DeriveBalance(dec(tt.total), dec(tt.emi), dec(tt.paid))
			require.NoError(t, err)
			assertDecimal(t, tt.paid, b.AmountPaid, "amount paid")
			assertDecimal(t, tt.balance, b.BalanceAmount, "balance")
			assert.Equal(t, tt.emisLeft, b.EMIsLeft)
		})
	}
}

func TestDeriveBalance_NonPositiveEMI(t *testing.T) {
	for _, emi := range []string{"0", "-10"} {
		_, err := DeriveBalance(dec("1000"), dec(emi), decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidLoanState, "emi=%s", emi)
	}
}

func TestDeriveBalance_Monotonic(t *testing.T) {
	q, err := QuoteLoan(dec("50000"), 3, dec("7.5"))
	require.NoError(t, err)

	paid := decimal.Zero
	prev, err := DeriveBalance(q.TotalAmount, q.MonthlyEMI, paid)
	require.NoError(t, err)

	for _, amt := range []string{"1500", "0.01", "10000", "1847.22", "25000", "40000", "1"} {
		paid = paid.Add(dec(amt))
		cur, err := DeriveBalance(q.TotalAmount, q.MonthlyEMI, paid)
		require.NoError(t, err)
		assert.True(t, cur.BalanceAmount.LessThanOrEqual(prev.BalanceAmount), "balance increased after %s", amt)
		assert.LessOrEqual(t, cur.EMIsLeft, prev.EMIsLeft, "emis left increased after %s", amt)
		assert.False(t, cur.BalanceAmount.IsNegative())
		prev = cur
	}
	assert.True(t, IsPaidOff(prev.BalanceAmount))
	assert.Zero(t, prev.EMIsLeft)
}

func TestIsPaidOff(t *testing.T) {
	assert.True(t, IsPaidOff(decimal.Zero))
	assert.True(t, IsPaidOff(dec("-0.01")))
	assert.False(t, IsPaidOff(dec("0.01")))
}

func TestSumPayments_OrderIndependent(t *testing.T) {
	amounts := []string{"5000", "0.1", "0.2", "12345.67", "3"}
	var forward, backward []*models.Payment
	for i := range amounts {
		forward = append(forward, &models.Payment{Amount: dec(amounts[i])})
		backward = append(backward, &models.Payment{Amount: dec(amounts[len(amounts)-1-i])})
	}
	assertDecimal(t, "17348.97", SumPayments(forward))
	assertDecimal(t, "17348.97", SumPayments(backward))
	assert.True(t, SumPayments(nil).IsZero())
}
