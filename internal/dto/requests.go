package dto

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest запрос регистрации.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest запрос входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest запрос обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateContractRequest запрос создания контракта.
type CreateContractRequest struct {
	FreelancerID   uuid.UUID  `json:"freelancer_id" binding:"required"`
	ProjectID      *uuid.UUID `json:"project_id"`
	Terms          string     `json:"terms" binding:"required"`
	PaymentTerms   string     `json:"payment_terms"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	AmountAgreed   float64    `json:"amount_agreed" binding:"required"`
	MilestoneBased bool       `json:"milestone_based"`
	Hourly         bool       `json:"hourly"`
}

// UpdateContractRequest частичное обновление контракта.
type UpdateContractRequest struct {
	Terms        *string    `json:"terms"`
	PaymentTerms *string    `json:"payment_terms"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	AmountAgreed *float64   `json:"amount_agreed"`
}

// UpdateStatusRequest смена статуса контракта или вехи.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateMilestoneRequest запрос создания вехи.
type CreateMilestoneRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount" binding:"required"`
	DueDate     time.Time `json:"due_date" binding:"required"`
}

// UpdateMilestoneRequest частичное обновление вехи.
type UpdateMilestoneRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateEscrowRequest запрос резервирования средств.
type CreateEscrowRequest struct {
	MilestoneID *uuid.UUID `json:"milestone_id"`
	Amount      float64    `json:"amount" binding:"required"`
}

// CreateDisputeRequest запрос открытия спора.
type CreateDisputeRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description" binding:"required"`
	ContractID   uuid.UUID  `json:"contract_id" binding:"required"`
	MilestoneID  *uuid.UUID `json:"milestone_id"`
	ReturnType   string     `json:"return_type" binding:"required"`
	ReturnAmount float64    `json:"return_amount"`
}

// DisputeResponseRequest ответ второй стороны на спор.
type DisputeResponseRequest struct {
	Response     string  `json:"response" binding:"required"`
	ReturnType   string  `json:"return_type" binding:"required"`
	ReturnAmount float64 `json:"return_amount"`
}

// ResolveForwardedRequest вердикт менеджера DRC.
type ResolveForwardedRequest struct {
	Winner       string  `json:"winner" binding:"required"`
	ReturnType   string  `json:"return_type" binding:"required"`
	ReturnAmount float64 `json:"return_amount"`
	Comment      string  `json:"comment"`
}

// UpdateSkillsRequest замена списка навыков фрилансера.
type UpdateSkillsRequest struct {
	Skills []SkillPayload `json:"skills" binding:"required"`
}

// SkillPayload типизированный навык.
type SkillPayload struct {
	Category string `json:"category"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type"`
	Verified bool   `json:"verified"`
}
