package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute спор по контракту или отдельной вехе.
// CreatedBy — сторона, поднявшая спор; вторая сторона выводится из контракта.
type Dispute struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Title            string     `db:"title" json:"title"`
	Description      string     `db:"description" json:"description"`
	ContractID       uuid.UUID  `db:"contract_id" json:"contract_id"`
	MilestoneID      *uuid.UUID `db:"milestone_id" json:"milestone_id,omitempty"`
	ClientID         *uuid.UUID `db:"client_id" json:"client_id,omitempty"`
	FreelancerID     *uuid.UUID `db:"freelancer_id" json:"freelancer_id,omitempty"`
	CreatedBy        uuid.UUID  `db:"created_by" json:"created_by"`
	ReturnType       string     `db:"return_type" json:"return_type"`
	ReturnAmount     float64    `db:"return_amount" json:"return_amount"`
	Status           string     `db:"status" json:"status"`
	ResponseDeadline time.Time  `db:"response_deadline" json:"response_deadline"`
	GotResponse      bool       `db:"got_response" json:"got_response"`
	Version          int        `db:"version" json:"version"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// DisputeResponse ответ второй стороны на спор.
type DisputeResponse struct {
	ID               uuid.UUID `db:"id" json:"id"`
	DisputeID        uuid.UUID `db:"dispute_id" json:"dispute_id"`
	RespondedBy      uuid.UUID `db:"responded_by" json:"responded_by"`
	Response         string    `db:"response" json:"response"`
	ReturnType       string    `db:"return_type" json:"return_type"`
	ReturnAmount     float64   `db:"return_amount" json:"return_amount"`
	ResponseDeadline time.Time `db:"response_deadline" json:"response_deadline"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// SupportingDocument файл-доказательство, приложенный к спору или ответу.
type SupportingDocument struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	DisputeID  *uuid.UUID `db:"dispute_id" json:"dispute_id,omitempty"`
	ResponseID *uuid.UUID `db:"response_id" json:"response_id,omitempty"`
	UploadedBy uuid.UUID  `db:"uploaded_by" json:"uploaded_by"`
	FileName   string     `db:"file_name" json:"file_name"`
	FilePath   string     `db:"file_path" json:"file_path"`
	SizeBytes  int64      `db:"size_bytes" json:"size_bytes"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// DrcForwardedDispute запись о передаче спора менеджеру DRC.
type DrcForwardedDispute struct {
	ID               uuid.UUID `db:"id" json:"id"`
	DisputeID        uuid.UUID `db:"dispute_id" json:"dispute_id"`
	DisputeManagerID uuid.UUID `db:"dispute_manager_id" json:"dispute_manager_id"`
	Solved           bool      `db:"solved" json:"solved"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DrcResolvedDispute терминальная запись о решении спора менеджером DRC.
type DrcResolvedDispute struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ForwardedID  uuid.UUID `db:"forwarded_id" json:"forwarded_id"`
	Winner       string    `db:"winner" json:"winner"`
	ReturnType   string    `db:"return_type" json:"return_type"`
	ReturnAmount float64   `db:"return_amount" json:"return_amount"`
	Comment      string    `db:"comment" json:"comment"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ManagerLoad агрегированная нагрузка менеджера споров, используется
// алгоритмом выбора при передаче дела.
type ManagerLoad struct {
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	DisputePerWeek  int        `db:"dispute_per_week" json:"dispute_per_week"`
	ForwardedInWeek int        `db:"forwarded_in_week" json:"forwarded_in_week"`
	UnsolvedCount   int        `db:"unsolved_count" json:"unsolved_count"`
	OldestUnsolved  *time.Time `db:"oldest_unsolved" json:"oldest_unsolved,omitempty"`
}
