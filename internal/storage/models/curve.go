// internal/storage/models/curve.go
package models

import "time"

// Curve is the persisted snapshot of one asset's curve state.
type Curve struct {
	BaseModel
	Asset         string    `gorm:"unique;not null;type:varchar(44)"`
	Creator       string    `gorm:"index;not null;type:varchar(44)"`
	FeeCollector  string    `gorm:"not null;type:varchar(44)"`
	Vault         string    `gorm:"not null;type:varchar(44)"`
	BasePrice     uint64    `gorm:"not null"`
	TokenSupply   uint64    `gorm:"not null"`
	MaxSupply     uint64    `gorm:"not null"`
	SolReserves   uint64    `gorm:"not null"`
	Graduated     bool      `gorm:"not null;default:false"`
	InitializedAt time.Time `gorm:"not null"`
}
