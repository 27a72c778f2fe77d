package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ethiogig/ethiogig-backend/internal/dto"
	"github.com/ethiogig/ethiogig-backend/internal/http/handlers/common"
	"github.com/ethiogig/ethiogig-backend/internal/service"
)

type EscrowHandler struct {
	svc *service.EscrowService
}

func NewEscrowHandler(s *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{svc: s}
}

// CreateEscrow POST /api/contracts/:id/escrows
func (h *EscrowHandler) CreateEscrow(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CreateEscrowRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.svc.CreateEscrow(c.Request.Context(), contractID, userID, req.MilestoneID, req.Amount)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, escrow)
}

// ListByContract GET /api/contracts/:id/escrows
func (h *EscrowHandler) ListByContract(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrows, err := h.svc.ListContractEscrows(c.Request.Context(), contractID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, escrows)
}

// GetEscrow GET /api/escrows/:id
func (h *EscrowHandler) GetEscrow(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	escrowID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.svc.GetEscrow(c.Request.Context(), escrowID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, escrow)
}

// ConfirmDeposit POST /api/escrows/:id/confirm-deposit
// Доступ ограничен финансовым оператором на уровне маршрута.
func (h *EscrowHandler) ConfirmDeposit(c *gin.Context) {
	escrowID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.svc.ConfirmDeposit(c.Request.Context(), escrowID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, escrow)
}

// Release POST /api/escrows/:id/release
func (h *EscrowHandler) Release(c *gin.Context) {
	escrowID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.svc.Release(c.Request.Context(), escrowID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, escrow)
}

// Fulfillment GET /api/contracts/:id/escrows/fulfillment
func (h *EscrowHandler) Fulfillment(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fulfilled, err := h.svc.IsFulfilled(c.Request.Context(), contractID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fulfilled": fulfilled})
}
