// Owner settings HTTP handlers.
//
// This file exposes REST endpoints for the per-owner acceptance policy:
//   - GET /users/me/settings (read, defaults apply)
//   - PUT /users/me/settings (update acceptance mode)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dlampros/go-meet-backend/internal/services"
)

// UpdateSettingsRequest is the JSON payload for updating acceptance settings.
type UpdateSettingsRequest struct {
	// AcceptanceMode is either "manual" or "auto".
	AcceptanceMode string `json:"acceptance_mode" binding:"required" example:"auto"`
}

// GetSettings godoc
// @ID          getSettings
// @Summary     Read the current user's acceptance settings
// @Description Returns the user's acceptance mode. Users who never configured anything get the manual default.
// @Tags        Settings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  domain.OwnerSettings
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /users/me/settings [get]
func (h *Handlers) GetSettings(c *gin.Context) {
	s, err := h.settingsSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, s)
}

// UpdateSettings godoc
// @ID          updateSettings
// @Summary     Update the current user's acceptance settings
// @Description Switches the user's acceptance mode between manual review and auto-accept. The new mode applies to future requests only.
// @Tags        Settings
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.UpdateSettingsRequest  true  "New settings"
//
// @Success     200  {object}  domain.OwnerSettings
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /users/me/settings [put]
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	mode := strings.ToLower(strings.TrimSpace(req.AcceptanceMode))

	s, err := h.settingsSvc.Update(c.Request.Context(), userID(c), mode)
	if err != nil {
		if err == services.ErrInvalidMode {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "acceptance_mode must be manual or auto")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, s)
}
