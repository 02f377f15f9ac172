package store

import (
	"testing"

	"github.com/mcclellann/loanledger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStorageContract(t, func(t *testing.T) Storage { return NewMemoryStore() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.CreateLoan(sampleLoan("L1", "CUST001")))

	loan, err := s.GetLoan("L1")
	require.NoError(t, err)
	loan.Status = models.LoanStatusPaidOff

	again, err := s.GetLoan("L1")
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusActive, again.Status)
}
