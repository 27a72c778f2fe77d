package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ethiogig/ethiogig-backend/internal/dto"
	"github.com/ethiogig/ethiogig-backend/internal/http/handlers/common"
	"github.com/ethiogig/ethiogig-backend/internal/service"
)

type DrcHandler struct {
	svc *service.DrcService
}

func NewDrcHandler(s *service.DrcService) *DrcHandler {
	return &DrcHandler{svc: s}
}

// Forward POST /api/disputes/:id/forward
func (h *DrcHandler) Forward(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	forwarded, err := h.svc.Forward(c.Request.Context(), disputeID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, forwarded)
}

// CheckInDRC GET /api/disputes/:id/drc
func (h *DrcHandler) CheckInDRC(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	inDRC, err := h.svc.CheckDisputeInDRC(c.Request.Context(), disputeID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_drc": inDRC})
}

// Resolve POST /api/drc/forwarded/:id/resolve
// Доступ ограничен ролью менеджера споров на уровне маршрута,
// привязку к конкретному менеджеру проверяет сервис.
func (h *DrcHandler) Resolve(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	forwardedID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ResolveForwardedRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	resolved, err := h.svc.ResolveForwarded(c.Request.Context(), forwardedID, userID, service.ResolveForwardedInput{
		Winner:       req.Winner,
		ReturnType:   req.ReturnType,
		ReturnAmount: req.ReturnAmount,
		Comment:      req.Comment,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resolved)
}
