// Package ledger treats users and clients uniformly as billable principals:
// each has an append-only signed-amount transaction log, and its balance is
// the sum over that log. Nothing ever mutates a stored balance directly;
// the client's cached credit_balance column is rewritten from the fold
// after every write.
package ledger

import (
	"errors"
	"fmt"

	"automatisierung-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrZeroAmount          = errors.New("amount must not be zero")
)

// Entry carries the metadata for one ledger transaction. Amount is set by
// Record/Debit, not by callers of Debit.
type Entry struct {
	Amount          int64
	TransactionType string
	AutomationID    string
	ExecutionID     string
	Notes           string
}

// Account is a billable principal: something with a transaction log and a
// balance. The two implementations are UserAccount and ClientAccount.
type Account interface {
	// Balance folds the principal's transaction log; 0 when empty.
	Balance(tx *gorm.DB) (int64, error)
	// Record appends one entry and returns its id. It does not check the
	// balance; use Debit for entries that must not overdraw.
	Record(tx *gorm.DB, entry Entry) (string, error)

	// lock serializes concurrent debits by locking the principal row.
	lock(tx *gorm.DB) error
}

// Debit appends an entry of -amount iff the resulting fold stays >= 0.
// Must be called inside a transaction: the principal row is locked first so
// two concurrent debits cannot both pass the balance check.
func Debit(tx *gorm.DB, account Account, amount int64, entry Entry) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	if err := account.lock(tx); err != nil {
		return "", err
	}
	balance, err := account.Balance(tx)
	if err != nil {
		return "", err
	}
	if balance-amount < 0 {
		return "", ErrInsufficientCredits
	}
	entry.Amount = -amount
	return account.Record(tx, entry)
}

// HasSufficient reports whether the principal's balance covers amount.
// Advisory only: the authoritative check lives in Debit.
func HasSufficient(tx *gorm.DB, account Account, amount int64) (bool, error) {
	balance, err := account.Balance(tx)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// UserAccount bills a platform user through the credits table.
type UserAccount struct {
	UserID string
}

func (a UserAccount) Balance(tx *gorm.DB) (int64, error) {
	var total int64
	err := tx.Model(&models.Credit{}).
		Where("user_id = ?", a.UserID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (a UserAccount) Record(tx *gorm.DB, entry Entry) (string, error) {
	if entry.Amount == 0 {
		return "", ErrZeroAmount
	}
	credit := models.Credit{
		UserID:          a.UserID,
		Amount:          entry.Amount,
		TransactionType: entry.TransactionType,
		AutomationID:    entry.AutomationID,
		ExecutionID:     entry.ExecutionID,
		Notes:           entry.Notes,
	}
	if err := tx.Create(&credit).Error; err != nil {
		return "", err
	}
	return credit.Id, nil
}

func (a UserAccount) lock(tx *gorm.DB) error {
	var user models.User
	return lockRow(tx).Select("id").First(&user, "id = ?", a.UserID).Error
}

// ClientAccount bills a client through the client_credits table and keeps
// the client's cached credit_balance in sync.
type ClientAccount struct {
	ClientID string
}

func (a ClientAccount) Balance(tx *gorm.DB) (int64, error) {
	var total int64
	err := tx.Model(&models.ClientCredit{}).
		Where("client_id = ?", a.ClientID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (a ClientAccount) Record(tx *gorm.DB, entry Entry) (string, error) {
	if entry.Amount == 0 {
		return "", ErrZeroAmount
	}
	credit := models.ClientCredit{
		ClientID:        a.ClientID,
		Amount:          entry.Amount,
		TransactionType: entry.TransactionType,
		AutomationID:    entry.AutomationID,
		ExecutionID:     entry.ExecutionID,
		Notes:           entry.Notes,
	}
	if err := tx.Create(&credit).Error; err != nil {
		return "", err
	}
	// Every write re-derives the cache; no call site patches the column.
	if err := a.Reconcile(tx); err != nil {
		return "", err
	}
	return credit.Id, nil
}

func (a ClientAccount) lock(tx *gorm.DB) error {
	var client models.Client
	return lockRow(tx).Select("id").First(&client, "id = ?", a.ClientID).Error
}

// lockRow adds FOR UPDATE where the dialect supports it. sqlite has no row
// locks; its single writer serializes debits instead.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Reconcile recomputes the fold and writes it to clients.credit_balance.
// Idempotent; safe to call at any time.
func (a ClientAccount) Reconcile(tx *gorm.DB) error {
	total, err := a.Balance(tx)
	if err != nil {
		return err
	}
	return tx.Model(&models.Client{}).
		Where("id = ?", a.ClientID).
		Update("credit_balance", total).Error
}
