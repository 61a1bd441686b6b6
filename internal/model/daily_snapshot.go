package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailySnapshot is the end-of-day balance record. One row per date.
// Amount columns are nullable in older rows; readers treat NULL as zero.
type DailySnapshot struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date Date      `gorm:"uniqueIndex;not null"`
	// CashLocal is in SOS, every other amount in USD
	CashLocal *decimal.Decimal `gorm:"type:decimal(16,2);default:0"`
	CashRef   *decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	EVC       *decimal.Decimal `gorm:"column:evc;type:decimal(12,2);default:0"`
	Wallet2   *decimal.Decimal `gorm:"column:wallet2;type:decimal(12,2);default:0"`
	Merchant  *decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Note      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DailySnapshot) TableName() string { return "daily_snapshots" }
