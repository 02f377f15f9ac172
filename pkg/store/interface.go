package store

import (
	"errors"

	"github.com/mcclellann/loanledger/pkg/models"
)

var (
	// ErrNotFound is returned when a lookup by identifier matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an append reuses an existing identifier.
	ErrDuplicate = errors.New("duplicate record")
)

// Storage defines the record store operations the ledger needs for customers, loans and payments.
// Every list operation returns records in insertion order.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=interface.go Storage
type Storage interface {
	CreateCustomer(customer *models.Customer) error
	GetCustomer(customerID string) (*models.Customer, error)
	GetAllCustomers() ([]*models.Customer, error)

	CreateLoan(loan *models.Loan) error
	GetLoan(loanID string) (*models.Loan, error)
	GetAllLoans() ([]*models.Loan, error)
	GetLoansForCustomer(customerID string) ([]*models.Loan, error)
	// UpdateLoanStatus moves a loan from one status to another atomically.
	// It reports false, without error, when the loan's current status is not from.
	UpdateLoanStatus(loanID string, from, to models.LoanStatus) (bool, error)

	CreatePayment(payment *models.Payment) error
	GetPaymentsForLoan(loanID string) ([]*models.Payment, error)

	Close() error
}
