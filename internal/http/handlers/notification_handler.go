// Notification HTTP handlers.
//
//   - POST/GET    /notifications/motivational               (trigger / status)
//   - GET/POST    /notifications/motivational/messages      (library)
//   - DELETE      /notifications/motivational/messages/{id}
//   - GET/POST    /notifications/prompt                     (opt-in prompt)
//   - PUT         /notifications/permission                 (browser permission report)
//   - POST        /notifications/push                       (broadcast push)
//   - GET         /notifications/stream?channel=            (bridge events)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-desk/internal/realtime"
	"github.com/tbourn/go-support-desk/internal/services"
	"github.com/tbourn/go-support-desk/internal/utils"
)

// TriggerResponse reports whether a new notification was scheduled.
type TriggerResponse struct {
	Scheduled bool                    `json:"scheduled"`
	State     services.SchedulerState `json:"state"`
}

// LibraryMessageRequest adds a motivational message.
type LibraryMessageRequest struct {
	Title string `json:"title" binding:"required" example:"Bora treinar! 💪"`
	Body  string `json:"body" binding:"required" example:"Seu corpo agradece."`
}

// LibraryResponse lists the motivational messages.
type LibraryResponse struct {
	Messages []services.MotivationalMessage `json:"messages"`
}

// PromptResponse tells the client whether to show the opt-in prompt.
type PromptResponse struct {
	Show bool `json:"show"`
}

// PermissionRequest reports the browser notification permission.
type PermissionRequest struct {
	Permission string `json:"permission" binding:"required" example:"granted"`
}

// PushRequest is a broadcast push.
type PushRequest struct {
	Title string `json:"title" binding:"required" example:"Live hoje às 20h"`
	Body  string `json:"body" binding:"required" example:"Não perca!"`
}

// session identifies the client session for prompt dismissal.
func session(c *gin.Context) string {
	if s := strings.TrimSpace(c.GetHeader("X-Session-ID")); s != "" {
		return s
	}
	return strings.TrimSpace(c.Query("session"))
}

// TriggerMotivational godoc
// @ID          triggerMotivational
// @Summary     Schedule a motivational notification
// @Description No-op (scheduled=false) while a notification is already counting down.
// @Tags        Notifications
// @Produce     json
// @Success     202  {object}  handlers.TriggerResponse  "Scheduled"
// @Success     200  {object}  handlers.TriggerResponse  "Already scheduled"
// @Router      /notifications/motivational [post]
func (h *Handlers) TriggerMotivational(c *gin.Context) {
	scheduled := h.d.Scheduler.Trigger(c.Request.Context())
	status := http.StatusOK
	if scheduled {
		status = http.StatusAccepted
	}
	ok(c, status, TriggerResponse{Scheduled: scheduled, State: h.d.Scheduler.Status()})
}

// MotivationalStatus godoc
// @ID          motivationalStatus
// @Summary     Scheduler state
// @Tags        Notifications
// @Produce     json
// @Success     200  {object}  services.SchedulerState
// @Router      /notifications/motivational [get]
func (h *Handlers) MotivationalStatus(c *gin.Context) {
	ok(c, http.StatusOK, h.d.Scheduler.Status())
}

// ListLibrary godoc
// @ID          listLibrary
// @Summary     Motivational messages
// @Tags        Notifications
// @Produce     json
// @Success     200  {object}  handlers.LibraryResponse
// @Router      /notifications/motivational/messages [get]
func (h *Handlers) ListLibrary(c *gin.Context) {
	ok(c, http.StatusOK, LibraryResponse{Messages: h.d.Library.List(c.Request.Context())})
}

// AddLibraryMessage godoc
// @ID          addLibraryMessage
// @Summary     Add a motivational message
// @Tags        Notifications
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LibraryMessageRequest  true  "Message"
// @Success     201  {object}  services.MotivationalMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /notifications/motivational/messages [post]
func (h *Handlers) AddLibraryMessage(c *gin.Context) {
	var req LibraryMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrMessageRequired.Error())
		return
	}
	m, err := h.d.Library.Add(c.Request.Context(), req.Title, req.Body)
	if err != nil {
		if errors.Is(err, services.ErrMessageRequired) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, m)
}

// RemoveLibraryMessage godoc
// @ID          removeLibraryMessage
// @Summary     Remove a motivational message
// @Description The last remaining message cannot be removed.
// @Tags        Notifications
// @Param       id  path  string  true  "Message id"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown id"
// @Failure     409  {object}  handlers.ErrorResponse  "Last message"
// @Router      /notifications/motivational/messages/{id} [delete]
func (h *Handlers) RemoveLibraryMessage(c *gin.Context) {
	err := h.d.Library.Remove(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrLastMessage):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrLibraryMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// GetPrompt godoc
// @ID          getPrompt
// @Summary     Should the push opt-in prompt be shown
// @Tags        Notifications
// @Produce     json
// @Param       supported   query   bool    false  "Push supported by the client"
// @Param       subscribed  query   bool    false  "Client already subscribed"
// @Param       X-Session-ID  header  string  false  "Client session"
// @Success     200  {object}  handlers.PromptResponse
// @Router      /notifications/prompt [get]
func (h *Handlers) GetPrompt(c *gin.Context) {
	supported := utils.BoolDefault(c.Query("supported"), false)
	subscribed := utils.BoolDefault(c.Query("subscribed"), false)
	ok(c, http.StatusOK, PromptResponse{
		Show: h.d.Prompt.ShouldShow(c.Request.Context(), supported, subscribed, session(c)),
	})
}

// DismissPrompt godoc
// @ID          dismissPrompt
// @Summary     Dismiss the opt-in prompt for this session
// @Tags        Notifications
// @Param       X-Session-ID  header  string  false  "Client session"
// @Success     204
// @Router      /notifications/prompt [post]
func (h *Handlers) DismissPrompt(c *gin.Context) {
	if err := h.d.Prompt.Dismiss(c.Request.Context(), session(c)); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// PutPermission godoc
// @ID          putPermission
// @Summary     Report the browser notification permission
// @Tags        Notifications
// @Accept      json
// @Param       body  body  handlers.PermissionRequest  true  "default, granted or denied"
// @Success     204
// @Router      /notifications/permission [put]
func (h *Handlers) PutPermission(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "permission required")
		return
	}
	if err := h.d.Perms.SetPermission(c.Request.Context(), services.ParsePermission(req.Permission)); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// SendPush godoc
// @ID          sendPush
// @Summary     Send a push to every subscriber
// @Description Without a provider API key the payload is only logged (sent=false).
// @Tags        Notifications
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.PushRequest  true  "Notification"
// @Success     200  {object}  services.PushResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Provider error"
// @Router      /notifications/push [post]
func (h *Handlers) SendPush(c *gin.Context) {
	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrMessageRequired.Error())
		return
	}
	res, err := h.d.Push.Send(c.Request.Context(), req.Title, req.Body)
	if err != nil {
		if errors.Is(err, services.ErrMessageRequired) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusBadGateway, ErrCodePushFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// NotificationStream godoc
// @ID          notificationStream
// @Summary     Device bridge events
// @Description Server-Sent Events for client shells: haptic, localpush, notification,
// @Description permission_request and theme_reload.
// @Tags        Notifications
// @Produce     text/event-stream
// @Param       channel  query  string  false  "native or browser"  default(browser)
// @Router      /notifications/stream [get]
func (h *Handlers) NotificationStream(c *gin.Context) {
	channel := c.DefaultQuery("channel", services.ChannelBrowser)
	if channel != services.ChannelNative && channel != services.ChannelBrowser {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "channel must be native or browser")
		return
	}
	h.streamTable(c, "notifications-"+channel, services.BroadcastTable, realtime.Eq("channel", channel))
}
