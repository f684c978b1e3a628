package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the ISO calendar form used for serialized transaction dates.
const DateLayout = "2006-01-02"

// TransactionType classifies the movement a statement line describes.
type TransactionType string

// Transaction type constants.
const (
	TypePurchase TransactionType = "purchase"
	TypePayment  TransactionType = "payment"
	TypeCharge   TransactionType = "charge"
	TypeDeposit  TransactionType = "deposit"
)

// Transaction validation errors.
var (
	ErrMissingDate        = errors.New("missing date")
	ErrInvalidDescription = errors.New("description must contain at least one letter")
	ErrZeroAmount         = errors.New("amount must be non-zero")
	ErrInvalidType        = errors.New("invalid transaction type")
)

// Transaction represents a single statement line after extraction.
// Amounts are whole currency units; negative values are expenses.
type Transaction struct {
	Date               time.Time       `json:"-"`
	Description        string          `json:"description"`
	RawLine            string          `json:"rawLine"`
	Type               TransactionType `json:"type"`
	Category           string          `json:"category,omitempty"`
	CategoryReason     string          `json:"categoryReason,omitempty"`
	CategoryColor      string          `json:"categoryColor,omitempty"`
	CategoryIcon       string          `json:"categoryIcon,omitempty"`
	Amount             int64           `json:"amount"`
	Confidence         int             `json:"confidence"`
	CategoryConfidence int             `json:"categoryConfidence,omitempty"`
}

// ISODate returns the transaction date in ISO form.
func (t *Transaction) ISODate() string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format(DateLayout)
}

// Validate checks the invariants every emitted transaction must satisfy.
func (t *Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(t.Description) == "" || !hasLetter(t.Description) {
		return fmt.Errorf("%w: %q", ErrInvalidDescription, t.Description)
	}
	if t.Amount == 0 {
		return ErrZeroAmount
	}
	switch t.Type {
	case TypePurchase, TypePayment, TypeCharge, TypeDeposit:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	return nil
}

// IsExpense reports whether the transaction takes money out of the account.
func (t *Transaction) IsExpense() bool {
	return t.Amount < 0
}

// MarshalJSON writes the date in ISO form alongside the other fields.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	return json.Marshal(&struct {
		Date string `json:"date"`
		Alias
	}{
		Date:  t.ISODate(),
		Alias: Alias(t),
	})
}

// UnmarshalJSON reads an ISO date back into the transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type Alias Transaction
	aux := &struct {
		Date string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.Date == "" {
		t.Date = time.Time{}
		return nil
	}
	date, err := time.Parse(DateLayout, aux.Date)
	if err != nil {
		return fmt.Errorf("invalid transaction date %q: %w", aux.Date, err)
	}
	t.Date = date
	return nil
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
