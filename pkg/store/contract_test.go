package store

import (
	"testing"
	"time"

	"github.com/mcclellann/loanledger/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func sampleLoan(id, customerID string) *models.Loan {
	return &models.Loan{
		LoanID:          id,
		CustomerID:      customerID,
		PrincipalAmount: decimal.NewFromInt(100000),
		TotalAmount:     decimal.NewFromInt(120000),
		InterestRate:    decimal.NewFromInt(10),
		LoanPeriodYears: 2,
		MonthlyEMI:      decimal.NewFromInt(5000),
		Status:          models.LoanStatusActive,
		CreatedAt:       created,
	}
}

func samplePayment(id, loanID, amount string) *models.Payment {
	return &models.Payment{
		PaymentID:   id,
		LoanID:      loanID,
		Amount:      decimal.RequireFromString(amount),
		PaymentType: models.PaymentTypeEMI,
		PaymentDate: created.Add(time.Hour),
	}
}

// runStorageContract checks the behavior every Storage implementation must share.
func runStorageContract(t *testing.T, newStore func(t *testing.T) Storage) {
	t.Run("customers", func(t *testing.T) {
		s := newStore(t)

		all, err := s.GetAllCustomers()
		require.NoError(t, err)
		assert.Empty(t, all)

		for _, c := range []models.Customer{
			{CustomerID: "CUST002", Name: "Jane Smith", CreatedAt: created},
			{CustomerID: "CUST001", Name: "John Doe", CreatedAt: created},
		} {
			c := c
			require.NoError(t, s.CreateCustomer(&c))
		}
		err = s.CreateCustomer(&models.Customer{CustomerID: "CUST001", Name: "Again", CreatedAt: created})
		assert.ErrorIs(t, err, ErrDuplicate)

		all, err = s.GetAllCustomers()
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "CUST002", all[0].CustomerID)
		assert.Equal(t, "CUST001", all[1].CustomerID)

		c, err := s.GetCustomer("CUST001")
		require.NoError(t, err)
		assert.Equal(t, "John Doe", c.Name)
		assert.True(t, c.CreatedAt.Equal(created))

		_, err = s.GetCustomer("CUST999")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("loans", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.CreateLoan(sampleLoan("L2", "CUST001")))
		require.NoError(t, s.CreateLoan(sampleLoan("L1", "CUST002")))
		require.NoError(t, s.CreateLoan(sampleLoan("L3", "CUST001")))
		assert.ErrorIs(t, s.CreateLoan(sampleLoan("L1", "CUST001")), ErrDuplicate)

		loan, err := s.GetLoan("L1")
		require.NoError(t, err)
		assert.Equal(t, "CUST002", loan.CustomerID)
		assert.True(t, loan.TotalAmount.Equal(decimal.NewFromInt(120000)))
		assert.True(t, loan.MonthlyEMI.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, 2, loan.LoanPeriodYears)
		assert.Equal(t, models.LoanStatusActive, loan.Status)
		assert.True(t, loan.CreatedAt.Equal(created))

		_, err = s.GetLoan("missing")
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := s.GetAllLoans()
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"L2", "L1", "L3"}, []string{all[0].LoanID, all[1].LoanID, all[2].LoanID})

		owned, err := s.GetLoansForCustomer("CUST001")
		require.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, "L2", owned[0].LoanID)
		assert.Equal(t, "L3", owned[1].LoanID)

		none, err := s.GetLoansForCustomer("CUST404")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("loan status compare and set", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateLoan(sampleLoan("L1", "CUST001")))

		changed, err := s.UpdateLoanStatus("L1", models.LoanStatusActive, models.LoanStatusPaidOff)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = s.UpdateLoanStatus("L1", models.LoanStatusActive, models.LoanStatusPaidOff)
		require.NoError(t, err)
		assert.False(t, changed)

		loan, err := s.GetLoan("L1")
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusPaidOff, loan.Status)

		_, err = s.UpdateLoanStatus("missing", models.LoanStatusActive, models.LoanStatusPaidOff)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("payments", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateLoan(sampleLoan("L1", "CUST001")))
		require.NoError(t, s.CreateLoan(sampleLoan("L2", "CUST001")))

		late := samplePayment("P-b", "L1", "5000")
		late.PaymentDate = created.Add(48 * time.Hour)
		early := samplePayment("P-a", "L1", "0.01")
		early.PaymentType = models.PaymentTypeLumpSum

		require.NoError(t, s.CreatePayment(late))
		require.NoError(t, s.CreatePayment(samplePayment("P-c", "L2", "7")))
		require.NoError(t, s.CreatePayment(early))
		assert.ErrorIs(t, s.CreatePayment(samplePayment("P-a", "L1", "1")), ErrDuplicate)

		payments, err := s.GetPaymentsForLoan("L1")
		require.NoError(t, err)
		require.Len(t, payments, 2)
		// Insertion order, not payment date order.
		assert.Equal(t, "P-b", payments[0].PaymentID)
		assert.Equal(t, "P-a", payments[1].PaymentID)
		assert.Equal(t, models.PaymentTypeLumpSum, payments[1].PaymentType)
		assert.True(t, payments[1].Amount.Equal(decimal.RequireFromString("0.01")))
		assert.True(t, payments[0].PaymentDate.Equal(late.PaymentDate))

		empty, err := s.GetPaymentsForLoan("L3")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
