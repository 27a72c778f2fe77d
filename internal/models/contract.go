package models

import (
	"time"

	"github.com/google/uuid"
)

// Contract описывает платный контракт между клиентом и фрилансером.
// Ссылки на стороны обнуляемые: при удалении аккаунта финансовая история
// сохраняется. UpdateID указывает на черновик-замену, ожидающий принятия
// фрилансером.
type Contract struct {
	ID                       uuid.UUID  `db:"id" json:"id"`
	ClientID                 *uuid.UUID `db:"client_id" json:"client_id,omitempty"`
	FreelancerID             *uuid.UUID `db:"freelancer_id" json:"freelancer_id,omitempty"`
	ProjectID                *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	Terms                    string     `db:"terms" json:"terms"`
	PaymentTerms             string     `db:"payment_terms" json:"payment_terms"`
	StartDate                *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate                  *time.Time `db:"end_date" json:"end_date,omitempty"`
	AmountAgreed             float64    `db:"amount_agreed" json:"amount_agreed"`
	MilestoneBased           bool       `db:"milestone_based" json:"milestone_based"`
	Hourly                   bool       `db:"hourly" json:"hourly"`
	FreelancerAcceptedTerms  bool       `db:"freelancer_accepted_terms" json:"freelancer_accepted_terms"`
	Status                   string     `db:"status" json:"status"`
	PaymentStatus            string     `db:"payment_status" json:"payment_status"`
	UpdateID                 *uuid.UUID `db:"update_id" json:"update_id,omitempty"`
	Version                  int        `db:"version" json:"version"`
	CreatedAt                time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at" json:"updated_at"`
}

// ContractUpdate черновик-замена условий контракта.
// При принятии контракта фрилансером сумма и условия черновика
// переносятся в оригинал, а сам черновик удаляется.
type ContractUpdate struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ContractID   uuid.UUID  `db:"contract_id" json:"contract_id"`
	Terms        *string    `db:"terms" json:"terms,omitempty"`
	PaymentTerms *string    `db:"payment_terms" json:"payment_terms,omitempty"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	AmountAgreed *float64   `db:"amount_agreed" json:"amount_agreed,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Milestone веха контракта: отдельный этап со своей суммой и сроком.
type Milestone struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ContractID    uuid.UUID  `db:"contract_id" json:"contract_id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Amount        float64    `db:"amount" json:"amount"`
	DueDate       time.Time  `db:"due_date" json:"due_date"`
	Status        string     `db:"status" json:"status"`
	PaymentStatus string     `db:"payment_status" json:"payment_status"`
	UpdateID      *uuid.UUID `db:"update_id" json:"update_id,omitempty"`
	Version       int        `db:"version" json:"version"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// MilestoneUpdate черновик-замена условий вехи, принимается аналогично
// черновику контракта.
type MilestoneUpdate struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	MilestoneID uuid.UUID  `db:"milestone_id" json:"milestone_id"`
	Title       *string    `db:"title" json:"title,omitempty"`
	Description *string    `db:"description" json:"description,omitempty"`
	Amount      *float64   `db:"amount" json:"amount,omitempty"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
