package ledger

import "errors"

// Domain errors. The HTTP layer maps these to status codes and prints the message as is.
var (
	ErrInvalidLoanParameters = errors.New("invalid loan parameters")
	ErrInvalidAmount         = errors.New("amount must be > 0")
	ErrInvalidPaymentType    = errors.New("payment type must be EMI or LUMP_SUM")
	ErrLoanNotFound          = errors.New("loan not found")
	ErrNoLoansForCustomer    = errors.New("no loans found for customer")

	// ErrInvalidLoanState means a stored loan breaks the creation invariants (e.g. a non-positive EMI).
	ErrInvalidLoanState = errors.New("invalid loan state")

	ErrInvalidCustomer = errors.New("customer id and name are required")
	ErrCustomerExists  = errors.New("customer already exists")
)
