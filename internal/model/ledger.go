package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The four ledgers below are written by the point-of-sale and back-office
// screens. This service only reads them.

// Sale is a point-of-sale ticket.
// Status: "completed" | "voided"
type Sale struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status    string          `gorm:"type:varchar(20);not null;default:'completed'"`
	Note      *string
	CreatedAt time.Time `gorm:"index"`
}

func (Sale) TableName() string { return "sales" }

// CreditPayment is a customer paying back an earlier credit sale.
type CreditPayment struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerName string          `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaidAt       time.Time       `gorm:"index;not null"`
}

func (CreditPayment) TableName() string { return "credit_payments" }

// Expense is money taken out of the shop for running costs.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Category    string          `gorm:"type:varchar(40)"`
	Description string
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SpentAt     time.Time       `gorm:"index;not null"`
}

func (Expense) TableName() string { return "expenses" }

// Invoice is a supplier invoice paid out of the tracked channels.
type Invoice struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Supplier string          `gorm:"not null"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IssuedAt time.Time       `gorm:"index;not null"`
}

func (Invoice) TableName() string { return "invoices" }
