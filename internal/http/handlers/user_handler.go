package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ethiogig/ethiogig-backend/internal/dto"
	"github.com/ethiogig/ethiogig-backend/internal/http/handlers/common"
	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{svc: s}
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetFreelancerProfile GET /api/users/:id/freelancer-profile
func (h *UserHandler) GetFreelancerProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.svc.GetFreelancerProfile(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateSkills PUT /api/users/me/skills
func (h *UserHandler) UpdateSkills(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateSkillsRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	skills := make([]models.Skill, 0, len(req.Skills))
	for _, s := range req.Skills {
		skills = append(skills, models.Skill{
			Category: s.Category,
			Name:     s.Name,
			Type:     s.Type,
			Verified: s.Verified,
		})
	}

	if err := h.svc.UpdateSkills(c.Request.Context(), userID, skills); err != nil {
		c.Error(err)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "навыки обновлены", nil)
}

// DeleteMe DELETE /api/users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), userID, userID); err != nil {
		c.Error(err)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "учётная запись удалена", nil)
}
