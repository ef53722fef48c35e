// Community chat HTTP handlers.
//
//   - GET  /chat/messages  (latest messages with author profiles)
//   - POST /chat/messages  (send, subject to the mute check)
//   - GET  /chat/stream    (SSE of chat_messages changes)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/realtime"
	"github.com/tbourn/go-support-desk/internal/services"
)

// ChatMessageRequest is the JSON payload for a community message.
type ChatMessageRequest struct {
	Content string `json:"content" binding:"required" example:"Bom dia, pessoal!"`
}

// ChatListResponse is the community history, oldest first.
type ChatListResponse struct {
	Messages []domain.ChatEntry `json:"messages"`
}

// MutedResponse is the 403 body for muted senders.
type MutedResponse struct {
	ErrorResponse
	DaysLeft  int  `json:"days_left,omitempty"`
	Permanent bool `json:"permanent"`
}

// ListChat godoc
// @ID          listChat
// @Summary     Community chat history
// @Tags        Chat
// @Produce     json
// @Success     200  {object}  handlers.ChatListResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/messages [get]
func (h *Handlers) ListChat(c *gin.Context) {
	msgs, err := h.d.Community.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ChatListResponse{Messages: msgs})
}

// SendChat godoc
// @ID          sendChat
// @Summary     Post to the community chat
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Sender id"
// @Param       body       body    handlers.ChatMessageRequest  true  "Message"
// @Success     201  {object}  domain.ChatMessage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.MutedResponse  "Sender is muted"
// @Router      /chat/messages [post]
func (h *Handlers) SendChat(c *gin.Context) {
	uid, okUser := requireAgent(c)
	if !okUser {
		return
	}
	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	m, err := h.d.Community.Send(c.Request.Context(), uid, req.Content)
	if err != nil {
		var me *services.MutedError
		if errors.As(err, &me) {
			c.AbortWithStatusJSON(http.StatusForbidden, MutedResponse{
				ErrorResponse: ErrorResponse{
					RequestID: c.Writer.Header().Get("X-Request-ID"),
					Code:      ErrCodeMuted,
					Message:   me.Error(),
				},
				DaysLeft:  me.DaysLeft,
				Permanent: me.Permanent,
			})
			return
		}
		sendFail(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// ChatStream godoc
// @ID          chatStream
// @Summary     Community chat changes
// @Description Server-Sent Events named insert/update/delete; clients reload the list on each.
// @Tags        Chat
// @Produce     text/event-stream
// @Router      /chat/stream [get]
func (h *Handlers) ChatStream(c *gin.Context) {
	h.streamTable(c, "chat-stream", domain.ChatMessage{}.TableName(), realtime.Filter{})
}
