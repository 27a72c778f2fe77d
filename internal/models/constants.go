package models

// ContractStatus константы статусов контракта
const (
	ContractStatusDraft     = "draft"
	ContractStatusPending   = "pending"
	ContractStatusAccepted  = "accepted"
	ContractStatusActive    = "active"
	ContractStatusCompleted = "completed"
	ContractStatusCanceled  = "canceled"
	ContractStatusInDispute = "inDispute"
)

// MilestoneStatus константы статусов вехи
const (
	MilestoneStatusPending   = "pending"
	MilestoneStatusAccepted  = "accepted"
	MilestoneStatusActive    = "active"
	MilestoneStatusCompleted = "completed"
	MilestoneStatusCancelled = "cancelled"
	MilestoneStatusInDispute = "inDispute"
)

// PaymentStatus константы статусов оплаты контракта и вехи
const (
	PaymentStatusNotStarted = "not_started"
	PaymentStatusInProgress = "in_progress"
	PaymentStatusPaid       = "paid"
	PaymentStatusFailed     = "failed"
)

// EscrowStatus константы статусов эскроу-записи
const (
	EscrowStatusPending  = "Pending"
	EscrowStatusReleased = "Released"
)

// DisputeStatus константы статусов спора
const (
	DisputeStatusOpen         = "open"
	DisputeStatusResolved     = "resolved"
	DisputeStatusAutoResolved = "auto_resolved"
	DisputeStatusCancelled    = "cancelled"
	DisputeStatusDRCForwarded = "drc_forwarded"
)

// ReturnType типы возврата средств по спору
const (
	ReturnTypeFull    = "full"
	ReturnTypePartial = "partial"
)

// DisputeResponseType варианты ответа второй стороны на спор
const (
	DisputeResponseNoResponse   = "no_response"
	DisputeResponseRejected     = "rejected"
	DisputeResponseAccepted     = "accepted"
	DisputeResponseCounterOffer = "counter_offer"
)

// DisputeWinner победитель спора, зафиксированный менеджером DRC
const (
	DisputeWinnerClient     = "client"
	DisputeWinnerFreelancer = "freelancer"
)

// Роли пользователей платформы
const (
	RoleClient         = "client"
	RoleFreelancer     = "freelancer"
	RoleDisputeManager = "dispute_manager"
	RoleFinance        = "finance"
)

// ValidContractStatuses список валидных статусов контракта
var ValidContractStatuses = map[string]struct{}{
	ContractStatusDraft:     {},
	ContractStatusPending:   {},
	ContractStatusAccepted:  {},
	ContractStatusActive:    {},
	ContractStatusCompleted: {},
	ContractStatusCanceled:  {},
	ContractStatusInDispute: {},
}

// ValidMilestoneStatuses список валидных статусов вехи
var ValidMilestoneStatuses = map[string]struct{}{
	MilestoneStatusPending:   {},
	MilestoneStatusAccepted:  {},
	MilestoneStatusActive:    {},
	MilestoneStatusCompleted: {},
	MilestoneStatusCancelled: {},
	MilestoneStatusInDispute: {},
}

// ValidPaymentStatuses список валидных статусов оплаты
var ValidPaymentStatuses = map[string]struct{}{
	PaymentStatusNotStarted: {},
	PaymentStatusInProgress: {},
	PaymentStatusPaid:       {},
	PaymentStatusFailed:     {},
}

// ValidReturnTypes список валидных типов возврата
var ValidReturnTypes = map[string]struct{}{
	ReturnTypeFull:    {},
	ReturnTypePartial: {},
}

// ValidDisputeResponses список валидных вариантов ответа на спор
var ValidDisputeResponses = map[string]struct{}{
	DisputeResponseNoResponse:   {},
	DisputeResponseRejected:     {},
	DisputeResponseAccepted:     {},
	DisputeResponseCounterOffer: {},
}

// ValidDisputeWinners список валидных победителей спора
var ValidDisputeWinners = map[string]struct{}{
	DisputeWinnerClient:     {},
	DisputeWinnerFreelancer: {},
}

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleClient:         {},
	RoleFreelancer:     {},
	RoleDisputeManager: {},
	RoleFinance:        {},
}

// ContractTransitions допустимые переходы статусов контракта.
// Переходы в inDispute и обратно выполняет только движок споров.
var ContractTransitions = map[string][]string{
	ContractStatusDraft:     {ContractStatusPending, ContractStatusCanceled},
	ContractStatusPending:   {ContractStatusAccepted, ContractStatusCanceled, ContractStatusInDispute},
	ContractStatusAccepted:  {ContractStatusActive, ContractStatusCanceled, ContractStatusInDispute},
	ContractStatusActive:    {ContractStatusCompleted, ContractStatusCanceled, ContractStatusInDispute},
	ContractStatusInDispute: {ContractStatusActive},
}

// MilestoneTransitions допустимые переходы статусов вехи.
var MilestoneTransitions = map[string][]string{
	MilestoneStatusPending:   {MilestoneStatusAccepted, MilestoneStatusCancelled, MilestoneStatusInDispute},
	MilestoneStatusAccepted:  {MilestoneStatusActive, MilestoneStatusCancelled, MilestoneStatusInDispute},
	MilestoneStatusActive:    {MilestoneStatusCompleted, MilestoneStatusCancelled, MilestoneStatusInDispute},
	MilestoneStatusInDispute: {MilestoneStatusActive},
}

// CanTransit проверяет, допустим ли переход from -> to по таблице переходов.
func CanTransit(transitions map[string][]string, from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ActiveDisputeStatuses статусы, при которых спор считается активным:
// по контракту или вехе может существовать не более одного такого спора.
var ActiveDisputeStatuses = []string{DisputeStatusOpen, DisputeStatusDRCForwarded}
