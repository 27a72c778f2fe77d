package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ethiogig/ethiogig-backend/internal/dto"
	"github.com/ethiogig/ethiogig-backend/internal/http/handlers/common"
	"github.com/ethiogig/ethiogig-backend/internal/service"
)

type ContractHandler struct {
	svc *service.ContractService
}

func NewContractHandler(s *service.ContractService) *ContractHandler {
	return &ContractHandler{svc: s}
}

// CreateContract POST /api/contracts
func (h *ContractHandler) CreateContract(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateContractRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.svc.CreateContract(c.Request.Context(), userID, service.CreateContractInput{
		FreelancerID:   req.FreelancerID,
		ProjectID:      req.ProjectID,
		Terms:          req.Terms,
		PaymentTerms:   req.PaymentTerms,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		AmountAgreed:   req.AmountAgreed,
		MilestoneBased: req.MilestoneBased,
		Hourly:         req.Hourly,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

// GetContract GET /api/contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
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

	contract, err := h.svc.GetContract(c.Request.Context(), contractID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// UpdateContract PATCH /api/contracts/:id
func (h *ContractHandler) UpdateContract(c *gin.Context) {
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

	var req dto.UpdateContractRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.svc.UpdateContract(c.Request.Context(), contractID, userID, service.UpdateContractInput{
		Terms:        req.Terms,
		PaymentTerms: req.PaymentTerms,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		AmountAgreed: req.AmountAgreed,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// ProposeUpdate POST /api/contracts/:id/updates
func (h *ContractHandler) ProposeUpdate(c *gin.Context) {
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

	var req dto.UpdateContractRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	update, err := h.svc.ProposeContractUpdate(c.Request.Context(), contractID, userID, service.UpdateContractInput{
		Terms:        req.Terms,
		PaymentTerms: req.PaymentTerms,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		AmountAgreed: req.AmountAgreed,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, update)
}

// UpdateStatus PATCH /api/contracts/:id/status
func (h *ContractHandler) UpdateStatus(c *gin.Context) {
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

	var req dto.UpdateStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.svc.UpdateContractStatus(c.Request.Context(), contractID, userID, req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// Accept POST /api/contracts/:id/accept
func (h *ContractHandler) Accept(c *gin.Context) {
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

	contract, err := h.svc.AcceptContract(c.Request.Context(), contractID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// CreateMilestone POST /api/contracts/:id/milestones
func (h *ContractHandler) CreateMilestone(c *gin.Context) {
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

	var req dto.CreateMilestoneRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestone, err := h.svc.CreateMilestone(c.Request.Context(), contractID, userID, service.CreateMilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, milestone)
}

// ListMilestones GET /api/contracts/:id/milestones
func (h *ContractHandler) ListMilestones(c *gin.Context) {
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

	milestones, err := h.svc.ListMilestones(c.Request.Context(), contractID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, milestones)
}

// UpdateMilestone PATCH /api/milestones/:id
func (h *ContractHandler) UpdateMilestone(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateMilestoneRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestone, err := h.svc.UpdateMilestone(c.Request.Context(), milestoneID, userID, service.UpdateMilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, milestone)
}

// ProposeMilestoneUpdate POST /api/milestones/:id/updates
func (h *ContractHandler) ProposeMilestoneUpdate(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateMilestoneRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	update, err := h.svc.ProposeMilestoneUpdate(c.Request.Context(), milestoneID, userID, service.UpdateMilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, update)
}

// UpdateMilestoneStatus PATCH /api/milestones/:id/status
func (h *ContractHandler) UpdateMilestoneStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestone, err := h.svc.UpdateMilestoneStatus(c.Request.Context(), milestoneID, userID, req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, milestone)
}

// AcceptMilestone POST /api/milestones/:id/accept
func (h *ContractHandler) AcceptMilestone(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestone, err := h.svc.AcceptMilestone(c.Request.Context(), milestoneID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, milestone)
}

// CheckActive GET /api/contracts/active?freelancer_id=&client_id=
func (h *ContractHandler) CheckActive(c *gin.Context) {
	freelancerID, err := common.ParseUUIDQuery(c, "freelancer_id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	clientID, err := common.ParseUUIDQuery(c, "client_id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	active, err := h.svc.CheckActiveContract(c.Request.Context(), freelancerID, clientID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active})
}
