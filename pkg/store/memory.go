package store

import (
	"fmt"
	"sync"

	"github.com/mcclellann/loanledger/pkg/models"
)

// MemoryStore keeps all collections in process memory. Callers always receive copies.
type MemoryStore struct {
	mu        sync.RWMutex
	customers []models.Customer
	loans     []models.Loan
	payments  []models.Payment
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) CreateCustomer(customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.CustomerID == customer.CustomerID {
			return fmt.Errorf("customer %s: %w", customer.CustomerID, ErrDuplicate)
		}
	}
	m.customers = append(m.customers, *customer)
	return nil
}

func (m *MemoryStore) GetCustomer(customerID string) (*models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.customers {
		if c.CustomerID == customerID {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
}

func (m *MemoryStore) GetAllCustomers() ([]*models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		cp := c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) CreateLoan(loan *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loanIndex(loan.LoanID) >= 0 {
		return fmt.Errorf("loan %s: %w", loan.LoanID, ErrDuplicate)
	}
	m.loans = append(m.loans, *loan)
	return nil
}

func (m *MemoryStore) GetLoan(loanID string) (*models.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.loanIndex(loanID)
	if i < 0 {
		return nil, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}
	cp := m.loans[i]
	return &cp, nil
}

func (m *MemoryStore) GetAllLoans() ([]*models.Loan, error) {
	return m.filterLoans(func(*models.Loan) bool { return true }), nil
}

func (m *MemoryStore) GetLoansForCustomer(customerID string) ([]*models.Loan, error) {
	return m.filterLoans(func(l *models.Loan) bool { return l.CustomerID == customerID }), nil
}

func (m *MemoryStore) UpdateLoanStatus(loanID string, from, to models.LoanStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.loanIndex(loanID)
	if i < 0 {
		return false, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}
	if m.loans[i].Status != from {
		return false, nil
	}
	m.loans[i].Status = to
	return true, nil
}

func (m *MemoryStore) CreatePayment(payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.PaymentID == payment.PaymentID {
			return fmt.Errorf("payment %s: %w", payment.PaymentID, ErrDuplicate)
		}
	}
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *MemoryStore) GetPaymentsForLoan(loanID string) ([]*models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Payment
	for _, p := range m.payments {
		if p.LoanID == loanID {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// loanIndex must be called with mu held.
func (m *MemoryStore) loanIndex(loanID string) int {
	for i := range m.loans {
		if m.loans[i].LoanID == loanID {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) filterLoans(keep func(*models.Loan) bool) []*models.Loan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Loan
	for _, l := range m.loans {
		cp := l
		if keep(&cp) {
			out = append(out, &cp)
		}
	}
	return out
}
