package models

import (
	"time"

	"github.com/google/uuid"
)

// Escrow учётная запись о зарезервированной сумме по контракту или вехе.
// Это бухгалтерская запись, а не интеграция с платёжным шлюзом.
// DepositConfirmed выставляет только финансовый оператор платформы.
type Escrow struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ContractID       uuid.UUID  `db:"contract_id" json:"contract_id"`
	MilestoneID      *uuid.UUID `db:"milestone_id" json:"milestone_id,omitempty"`
	Amount           float64    `db:"amount" json:"amount"`
	Status           string     `db:"status" json:"status"`
	DepositConfirmed bool       `db:"deposit_confirmed" json:"deposit_confirmed"`
	Version          int        `db:"version" json:"version"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ReleasedAt       *time.Time `db:"released_at" json:"released_at,omitempty"`
}
