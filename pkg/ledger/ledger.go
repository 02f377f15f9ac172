package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/loanledger/pkg/cache"
	"github.com/mcclellann/loanledger/pkg/models"
	"github.com/mcclellann/loanledger/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const paymentRecordedMessage = "Payment recorded successfully."

// IDGenerator returns a new unique identifier for loans and payments.
type IDGenerator func() string

// Option configures a Ledger.
type Option func(*Ledger)

// WithIDGenerator replaces the default random UUID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(l *Ledger) { l.newID = gen }
}

// WithClock replaces time.Now for creation and payment timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithQuoteCache memoizes QuoteLoan results.
func WithQuoteCache(c cache.QuoteCache) Option {
	return func(l *Ledger) { l.quotes = c }
}

// Ledger handles the business logic for loans and payments.
// Loan status is written only by RecordPayment, which is serialized per loan.
type Ledger struct {
	storage store.Storage
	newID   IDGenerator
	now     func() time.Time
	logger  zerolog.Logger
	quotes  cache.QuoteCache
	locks   loanLocks
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage, opts ...Option) *Ledger {
	l := &Ledger{
		storage: s,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  log.Logger,
		locks:   loanLocks{held: make(map[string]*loanLock)},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateLoan quotes and stores a new ACTIVE loan. The customer is not required to exist.
func (l *Ledger) CreateLoan(req models.LoanCreationRequest) (*models.LoanCreationResponse, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrInvalidLoanParameters)
	}

	quote, err := QuoteLoan(req.LoanAmount, req.LoanPeriodYears, req.InterestRateYearly)
	if err != nil {
		return nil, err
	}

	loan := &models.Loan{
		LoanID:          l.newID(),
		CustomerID:      customerID,
		PrincipalAmount: req.LoanAmount,
		TotalAmount:     quote.TotalAmount,
		InterestRate:    req.InterestRateYearly,
		LoanPeriodYears: req.LoanPeriodYears,
		MonthlyEMI:      quote.MonthlyEMI,
		Status:          models.LoanStatusActive,
		CreatedAt:       l.now(),
	}
	if err := l.storage.CreateLoan(loan); err != nil {
		l.logger.Error().Err(err).Str("customer_id", customerID).Msg("failed to store loan")
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	l.logger.Info().
		Str("loan_id", loan.LoanID).
		Str("customer_id", customerID).
		Str("total_amount", loan.TotalAmount.String()).
		Str("monthly_emi", loan.MonthlyEMI.String()).
		Msg("loan created")

	return &models.LoanCreationResponse{
		LoanID:             loan.LoanID,
		CustomerID:         loan.CustomerID,
		TotalAmountPayable: loan.TotalAmount,
		MonthlyEMI:         loan.MonthlyEMI,
	}, nil
}

// RecordPayment appends a payment to a loan and moves the loan to PAID_OFF once nothing
// remains. Payments against a PAID_OFF loan are still stored.
func (l *Ledger) RecordPayment(loanID string, req models.PaymentRequest) (*models.PaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, req.Amount)
	}
	if !req.PaymentType.Valid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidPaymentType, req.PaymentType)
	}

	unlock := l.locks.lock(loanID)
	defer unlock()

	loan, err := l.getLoan(loanID)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		PaymentID:   l.newID(),
		LoanID:      loan.LoanID,
		Amount:      req.Amount,
		PaymentType: req.PaymentType,
		PaymentDate: l.now(),
	}
	if err := l.storage.CreatePayment(payment); err != nil {
		l.logger.Error().Err(err).Str("loan_id", loanID).Msg("failed to store payment")
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	balance, err := l.deriveLoanBalance(loan)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("loan_id", loanID).
		Str("payment_id", payment.PaymentID).
		Str("payment_type", string(payment.PaymentType)).
		Str("amount", payment.Amount.String()).
		Str("balance", balance.BalanceAmount.String()).
		Msg("payment recorded")

	// A failed transition is retried by the next payment on this loan.
	if IsPaidOff(balance.BalanceAmount) && loan.Status == models.LoanStatusActive {
		changed, err := l.storage.UpdateLoanStatus(loan.LoanID, models.LoanStatusActive, models.LoanStatusPaidOff)
		if err != nil {
			l.logger.Error().Err(err).Str("loan_id", loanID).Msg("failed to mark loan paid off")
			return nil, fmt.Errorf("payment %s recorded but status update failed: %w", payment.PaymentID, err)
		}
		if changed {
			l.logger.Info().Str("loan_id", loanID).Msg("loan paid off")
		}
	}

	return &models.PaymentResponse{
		PaymentID:        payment.PaymentID,
		LoanID:           loan.LoanID,
		Message:          paymentRecordedMessage,
		RemainingBalance: balance.BalanceAmount,
		EMIsLeft:         balance.EMIsLeft,
	}, nil
}

// GetLedger returns a loan's static fields, derived balance and payment history.
// It never changes the stored status.
func (l *Ledger) GetLedger(loanID string) (*models.LedgerResponse, error) {
	loan, err := l.getLoan(loanID)
	if err != nil {
		return nil, err
	}

	payments, err := l.storage.GetPaymentsForLoan(loan.LoanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	balance, err := DeriveBalance(loan.TotalAmount, loan.MonthlyEMI, SumPayments(payments))
	if err != nil {
		return nil, fmt.Errorf("loan %s: %w", loan.LoanID, err)
	}

	transactions := make([]models.LedgerTransaction, 0, len(payments))
	for _, p := range payments {
		transactions = append(transactions, models.LedgerTransaction{
			TransactionID: p.PaymentID,
			Date:          p.PaymentDate,
			Amount:        p.Amount,
			Type:          p.PaymentType,
		})
	}

	return &models.LedgerResponse{
		LoanID:        loan.LoanID,
		CustomerID:    loan.CustomerID,
		Principal:     loan.PrincipalAmount,
		TotalAmount:   loan.TotalAmount,
		MonthlyEMI:    loan.MonthlyEMI,
		AmountPaid:    balance.AmountPaid,
		BalanceAmount: balance.BalanceAmount,
		EMIsLeft:      balance.EMIsLeft,
		Status:        loan.Status,
		Transactions:  transactions,
	}, nil
}

// GetCustomerOverview summarizes every loan owned by a customer, in creation order.
// A customer without loans is an error, whether or not the customer exists.
func (l *Ledger) GetCustomerOverview(customerID string) (*models.CustomerOverviewResponse, error) {
	loans, err := l.storage.GetLoansForCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get loans: %w", err)
	}
	if len(loans) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLoansForCustomer, customerID)
	}

	overview := &models.CustomerOverviewResponse{
		CustomerID: customerID,
		TotalLoans: len(loans),
		Loans:      make([]models.CustomerOverviewLoan, 0, len(loans)),
	}
	for _, loan := range loans {
		balance, err := l.deriveLoanBalance(loan)
		if err != nil {
			return nil, err
		}
		overview.Loans = append(overview.Loans, models.CustomerOverviewLoan{
			LoanID:        loan.LoanID,
			Principal:     loan.PrincipalAmount,
			TotalAmount:   loan.TotalAmount,
			TotalInterest: loan.TotalAmount.Sub(loan.PrincipalAmount),
			EMIAmount:     loan.MonthlyEMI,
			AmountPaid:    balance.AmountPaid,
			BalanceAmount: balance.BalanceAmount,
			EMIsLeft:      balance.EMIsLeft,
			Status:        loan.Status,
		})
	}
	return overview, nil
}

// ListCustomers returns every stored customer.
func (l *Ledger) ListCustomers() ([]*models.Customer, error) {
	customers, err := l.storage.GetAllCustomers()
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	return customers, nil
}

// OnboardCustomer stores a new customer record.
func (l *Ledger) OnboardCustomer(req models.OnboardCustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Name:       strings.TrimSpace(req.Name),
		CreatedAt:  l.now(),
	}
	if customer.CustomerID == "" || customer.Name == "" {
		return nil, ErrInvalidCustomer
	}
	if err := l.storage.CreateCustomer(customer); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerExists, customer.CustomerID)
		}
		return nil, fmt.Errorf("failed to store customer: %w", err)
	}
	l.logger.Info().Str("customer_id", customer.CustomerID).Msg("customer onboarded")
	return customer, nil
}

var sampleCustomers = []models.OnboardCustomerRequest{
	{CustomerID: "CUST001", Name: "John Doe"},
	{CustomerID: "CUST002", Name: "Jane Smith"},
	{CustomerID: "CUST003", Name: "Robert Johnson"},
}

// InitializeSampleData seeds a few customers when none exist yet.
func (l *Ledger) InitializeSampleData() error {
	existing, err := l.storage.GetAllCustomers()
	if err != nil {
		return fmt.Errorf("failed to list customers: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, req := range sampleCustomers {
		if _, err := l.OnboardCustomer(req); err != nil {
			return err
		}
	}
	return nil
}

// QuoteLoan previews the totals of a loan without storing anything.
func (l *Ledger) QuoteLoan(req models.QuoteRequest) (*models.LoanQuote, error) {
	key := fmt.Sprintf("quote:%s:%d:%s", req.LoanAmount, req.LoanPeriodYears, req.InterestRateYearly)
	if l.quotes != nil {
		if raw, ok := l.quotes.Get(key); ok {
			var cached models.LoanQuote
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
			l.logger.Warn().Str("key", key).Msg("discarding unreadable cached quote")
		}
	}

	quote, err := QuoteLoan(req.LoanAmount, req.LoanPeriodYears, req.InterestRateYearly)
	if err != nil {
		return nil, err
	}

	if l.quotes != nil {
		raw, err := json.Marshal(quote)
		if err == nil {
			err = l.quotes.Set(key, string(raw))
		}
		if err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("failed to cache quote")
		}
	}
	return &quote, nil
}

func (l *Ledger) getLoan(loanID string) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLoanNotFound, loanID)
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

func (l *Ledger) deriveLoanBalance(loan *models.Loan) (Balance, error) {
	payments, err := l.storage.GetPaymentsForLoan(loan.LoanID)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to get payments: %w", err)
	}
	balance, err := DeriveBalance(loan.TotalAmount, loan.MonthlyEMI, SumPayments(payments))
	if err != nil {
		l.logger.Error().Err(err).Str("loan_id", loan.LoanID).Msg("stored loan violates invariants")
		return Balance{}, fmt.Errorf("loan %s: %w", loan.LoanID, err)
	}
	return balance, nil
}

// loanLocks hands out one mutex per loan id, dropping it once no caller holds it.
type loanLocks struct {
	mu   sync.Mutex
	held map[string]*loanLock
}

type loanLock struct {
	mu   sync.Mutex
	refs int
}

func (ll *loanLocks) lock(loanID string) (unlock func()) {
	ll.mu.Lock()
	lk, ok := ll.held[loanID]
	if !ok {
		lk = &loanLock{}
		ll.held[loanID] = lk
	}
	lk.refs++
	ll.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		ll.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(ll.held, loanID)
		}
		ll.mu.Unlock()
	}
}
