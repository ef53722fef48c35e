// Settings HTTP handlers.
//
//   - GET/PUT /settings/theme          (brand theme)
//   - GET     /settings/theme/palette  (palette currently applied)
//   - GET/PUT /settings/auto-reply     (support auto-reply)
//   - GET/PUT /settings                (raw key/value rows)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-desk/internal/services"
)

// AutoReplySettings is the auto-reply configuration.
type AutoReplySettings struct {
	Enabled *bool   `json:"enabled"`
	Message *string `json:"message"`
}

// SettingRequest updates one raw setting.
type SettingRequest struct {
	Key   string `json:"key" binding:"required" example:"app_name"`
	Value string `json:"value" example:"Sociedade Nutra"`
}

func settingsFail(c *gin.Context, err error) {
	var ce *services.ConfigError
	switch {
	case errors.Is(err, services.ErrInvalidTheme), errors.Is(err, services.ErrEmptySettingKey):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.As(err, &ce):
		fail(c, http.StatusServiceUnavailable, ErrCodeSettingsUnavailable, ce.Msg)
	case errors.Is(err, services.ErrSettingsTableMissing):
		fail(c, http.StatusServiceUnavailable, ErrCodeSettingsUnavailable, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// GetTheme godoc
// @ID          getTheme
// @Summary     Read the brand theme
// @Description Falls back to built-in defaults for missing or unreadable values.
// @Tags        Settings
// @Produce     json
// @Success     200  {object}  services.Theme
// @Router      /settings/theme [get]
func (h *Handlers) GetTheme(c *gin.Context) {
	ok(c, http.StatusOK, h.d.Settings.Read(c.Request.Context()))
}

// PutTheme godoc
// @ID          putTheme
// @Summary     Update the brand theme
// @Description Connected clients receive a theme_reload broadcast shortly after.
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Param       body  body  services.ThemePatch  true  "Fields to change; omitted fields keep their value"
// @Success     200  {object}  services.Theme
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid theme"
// @Failure     503  {object}  handlers.ErrorResponse  "Settings table missing"
// @Router      /settings/theme [put]
func (h *Handlers) PutTheme(c *gin.Context) {
	var patch services.ThemePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON")
		return
	}
	ctx := c.Request.Context()
	if err := h.d.Settings.Write(ctx, patch); err != nil {
		settingsFail(c, err)
		return
	}
	ok(c, http.StatusOK, h.d.Settings.Read(ctx))
}

// GetPalette godoc
// @ID          getPalette
// @Summary     Applied palette
// @Tags        Settings
// @Produce     json
// @Success     200  {object}  services.Palette
// @Router      /settings/theme/palette [get]
func (h *Handlers) GetPalette(c *gin.Context) {
	ok(c, http.StatusOK, h.d.Settings.Theme().Current())
}

// GetAutoReply godoc
// @ID          getAutoReply
// @Summary     Auto-reply settings
// @Tags        Settings
// @Produce     json
// @Success     200  {object}  handlers.AutoReplySettings
// @Router      /settings/auto-reply [get]
func (h *Handlers) GetAutoReply(c *gin.Context) {
	ctx := c.Request.Context()
	enabled := h.d.Settings.AutoReplyEnabled(ctx)
	msg := h.d.Settings.AutoReplyMessage(ctx)
	ok(c, http.StatusOK, AutoReplySettings{Enabled: &enabled, Message: &msg})
}

// PutAutoReply godoc
// @ID          putAutoReply
// @Summary     Update auto-reply settings
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.AutoReplySettings  true  "Fields to change"
// @Success     200  {object}  handlers.AutoReplySettings
// @Failure     503  {object}  handlers.ErrorResponse  "Settings table missing"
// @Router      /settings/auto-reply [put]
func (h *Handlers) PutAutoReply(c *gin.Context) {
	var req AutoReplySettings
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON")
		return
	}
	ctx := c.Request.Context()
	if req.Enabled != nil {
		if err := h.d.Settings.SetAutoReply(ctx, *req.Enabled); err != nil {
			settingsFail(c, err)
			return
		}
	}
	if req.Message != nil {
		if err := h.d.Settings.SetAutoReplyMessage(ctx, *req.Message); err != nil {
			settingsFail(c, err)
			return
		}
	}
	h.GetAutoReply(c)
}

// ListSettings godoc
// @ID          listSettings
// @Summary     All settings as a key/value map
// @Tags        Settings
// @Produce     json
// @Success     200  {object}  map[string]string
// @Failure     503  {object}  handlers.ErrorResponse  "Settings table missing"
// @Router      /settings [get]
func (h *Handlers) ListSettings(c *gin.Context) {
	all, err := h.d.Settings.All(c.Request.Context())
	if err != nil {
		settingsFail(c, err)
		return
	}
	ok(c, http.StatusOK, all)
}

// PutSetting godoc
// @ID          putSetting
// @Summary     Update one setting
// @Tags        Settings
// @Accept      json
// @Param       body  body  handlers.SettingRequest  true  "Setting"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse  "Settings table missing"
// @Router      /settings [put]
func (h *Handlers) PutSetting(c *gin.Context) {
	var req SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "key required")
		return
	}
	if err := h.d.Settings.Update(c.Request.Context(), req.Key, req.Value); err != nil {
		settingsFail(c, err)
		return
	}
	noContent(c)
}
