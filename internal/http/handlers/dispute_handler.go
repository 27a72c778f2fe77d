package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ethiogig/ethiogig-backend/internal/dto"
	"github.com/ethiogig/ethiogig-backend/internal/http/handlers/common"
	"github.com/ethiogig/ethiogig-backend/internal/service"
	"github.com/ethiogig/ethiogig-backend/internal/storage"
)

type DisputeHandler struct {
	svc     *service.DisputeService
	storage *storage.DocumentStorage
}

func NewDisputeHandler(s *service.DisputeService, docs *storage.DocumentStorage) *DisputeHandler {
	return &DisputeHandler{svc: s, storage: docs}
}

// CreateDispute POST /api/disputes
func (h *DisputeHandler) CreateDispute(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.CreateDispute(c.Request.Context(), userID, service.CreateDisputeInput{
		Title:        req.Title,
		Description:  req.Description,
		ContractID:   req.ContractID,
		MilestoneID:  req.MilestoneID,
		ReturnType:   req.ReturnType,
		ReturnAmount: req.ReturnAmount,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

// GetDispute GET /api/disputes/:id
func (h *DisputeHandler) GetDispute(c *gin.Context) {
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

	dispute, err := h.svc.GetDispute(c.Request.Context(), disputeID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// Respond POST /api/disputes/:id/response
func (h *DisputeHandler) Respond(c *gin.Context) {
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

	var req dto.DisputeResponseRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Respond(c.Request.Context(), disputeID, userID, service.RespondInput{
		Response:     req.Response,
		ReturnType:   req.ReturnType,
		ReturnAmount: req.ReturnAmount,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancel POST /api/disputes/:id/cancel
func (h *DisputeHandler) Cancel(c *gin.Context) {
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

	dispute, err := h.svc.Cancel(c.Request.Context(), disputeID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// Resolve POST /api/disputes/:id/resolve
func (h *DisputeHandler) Resolve(c *gin.Context) {
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

	dispute, err := h.svc.ResolveDirectly(c.Request.Context(), disputeID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dispute)
}

// UploadDocument POST /api/disputes/:id/documents
// Принимает multipart поле "document", сохраняет файл и прикрепляет его
// к спору.
func (h *DisputeHandler) UploadDocument(c *gin.Context) {
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

	fileHeader, err := c.FormFile("document")
	if err != nil {
		common.RespondBadRequest(c, "файл document обязателен")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	relativePath, size, err := h.storage.Save(c.Request.Context(), disputeID, fileHeader.Filename, file)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	doc, err := h.svc.AttachDocument(c.Request.Context(), disputeID, userID, fileHeader.Filename, relativePath, size)
	if err != nil {
		// Файл уже лежит на диске, запись не создана: убираем файл.
		_ = h.storage.Delete(c.Request.Context(), relativePath)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// UploadResponseDocument POST /api/disputes/:id/response/documents
// Прикрепляет файл к уже поданному ответу на спор.
func (h *DisputeHandler) UploadResponseDocument(c *gin.Context) {
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

	fileHeader, err := c.FormFile("document")
	if err != nil {
		common.RespondBadRequest(c, "файл document обязателен")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	relativePath, size, err := h.storage.Save(c.Request.Context(), disputeID, fileHeader.Filename, file)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	doc, err := h.svc.AttachResponseDocument(c.Request.Context(), disputeID, userID, fileHeader.Filename, relativePath, size)
	if err != nil {
		_ = h.storage.Delete(c.Request.Context(), relativePath)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// ListDocuments GET /api/disputes/:id/documents
func (h *DisputeHandler) ListDocuments(c *gin.Context) {
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

	docs, err := h.svc.ListDocuments(c.Request.Context(), disputeID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// ClearDocuments DELETE /api/disputes/:id/documents
func (h *DisputeHandler) ClearDocuments(c *gin.Context) {
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

	docs, err := h.svc.ClearDocuments(c.Request.Context(), disputeID, userID)
	if err != nil {
		c.Error(err)
		return
	}
	for _, doc := range docs {
		_ = h.storage.Delete(c.Request.Context(), doc.FilePath)
	}
	common.RespondSuccess(c, http.StatusOK, "вложения удалены", nil)
}
