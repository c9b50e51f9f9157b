// internal/storage/models/trade.go
package models

type Trade struct {
	BaseModel
	TradeID       string `gorm:"unique;not null;type:varchar(36)"`
	Asset         string `gorm:"index;not null;type:varchar(44)"`
	Party         string `gorm:"index;not null;type:varchar(44)"`
	Direction     string `gorm:"not null;type:varchar(4)"`
	GrossAmount   uint64 `gorm:"not null"`
	CounterAmount uint64 `gorm:"not null"`
	Fee           uint64 `gorm:"not null"`
}
