// Support HTTP handlers.
//
// This file exposes the agent-facing support desk:
//   - GET  /support/conversations                   (conversation list, ETag)
//   - GET  /support/conversations/{userId}/messages (thread, ETag)
//   - POST /support/conversations/{userId}/messages (agent reply, idempotent)
//   - POST /support/conversations/{userId}/images   (image reply)
//   - POST /support/conversations/{userId}/files    (file reply)
//   - GET  /support/stream                          (live conversation store)
//
// and the end-user side:
//   - POST /support/messages                        (user message + auto-reply)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// send exists for (agent, conversation, key), the handler returns the stored
// message and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-desk/internal/domain"
	"github.com/tbourn/go-support-desk/internal/http/middleware"
	"github.com/tbourn/go-support-desk/internal/repo"
	"github.com/tbourn/go-support-desk/internal/services"
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for a text message.
type SendMessageRequest struct {
	Message string `json:"message" binding:"required" example:"Olá! Como posso ajudar?"`
}

// MessageResponse wraps one stored support message.
type MessageResponse struct {
	Message *domain.SupportMessage `json:"message"`
}

// UserMessageResponse is returned to end users; AutoReply is present when
// auto-reply is enabled.
type UserMessageResponse struct {
	Message   *domain.SupportMessage `json:"message"`
	AutoReply *domain.SupportMessage `json:"auto_reply,omitempty"`
}

// ConversationsResponse is the agent's conversation list.
type ConversationsResponse struct {
	Conversations []domain.ConversationSummary `json:"conversations"`
}

// ThreadResponse is one user's thread, oldest first.
type ThreadResponse struct {
	Messages []domain.ThreadMessage `json:"messages"`
}

//
// Helpers
//

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}

// sendFail maps message send errors.
func sendFail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrNoConversation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation user id required")
	default:
		uploadFail(c, err)
	}
}

// requireAgent reads the caller id or aborts with 400.
func requireAgent(c *gin.Context) (string, bool) {
	id := userID(c)
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-User-ID header required")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// ListConversations godoc
// @ID          listConversations
// @Summary     List support conversations
// @Description One row per user with a support thread, most recent activity first.
// @Tags        Support
// @Produce     json
// @Success     200  {object}  handlers.ConversationsResponse
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /support/conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()

	if h.d.DB != nil {
		if count, latest, err := repo.SupportStats(ctx, h.d.DB); err == nil {
			if setETag(c, fmt.Sprintf(`W/"conversations:%d:%d"`, count, unixOrZero(latest))) {
				return
			}
		}
	}

	list, err := h.d.Support.ListConversations(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ConversationsResponse{Conversations: list})
}

// LoadMessages godoc
// @ID          loadMessages
// @Summary     Load a support thread
// @Tags        Support
// @Produce     json
// @Param       userId  path  string  true  "End user id"
// @Success     200  {object}  handlers.ThreadResponse
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /support/conversations/{userId}/messages [get]
func (h *Handlers) LoadMessages(c *gin.Context) {
	ctx := c.Request.Context()
	uid := c.Param("userId")

	if h.d.DB != nil {
		if count, latest, err := repo.ThreadStats(ctx, h.d.DB, uid); err == nil {
			if setETag(c, fmt.Sprintf(`W/"thread:%s:%d:%d"`, uid, count, unixOrZero(latest))) {
				return
			}
		}
	}

	msgs, err := h.d.Support.LoadThread(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ThreadResponse{Messages: msgs})
}

// SendMessage godoc
// @ID          sendSupportMessage
// @Summary     Reply to a user as an agent
// @Description Supports idempotency via the Idempotency-Key header (same key → same message).
// @Tags        Support
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  true   "Agent id"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       userId           path    string  true   "End user id"
// @Param       body             body    handlers.SendMessageRequest  true  "Message"
// @Success     201  {object}  handlers.MessageResponse
// @Success     200  {object}  handlers.MessageResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /support/conversations/{userId}/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	uid := c.Param("userId")
	agent, okAgent := requireAgent(c)
	if !okAgent {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	// Idempotency (replay path)
	idemKey, _ := middleware.IdempotencyKey(c)
	if idemKey != "" && h.d.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.d.DB, agent, uid, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err := repo.GetSupportMessage(ctx, h.d.DB, rec.MessageID); err == nil {
				replayed(c, MessageResponse{Message: prev})
				return
			}
		}
	}

	m, err := h.d.Support.SendMessage(ctx, uid, agent, req.Message)
	if err != nil {
		sendFail(c, err)
		return
	}

	// Idempotency (store path), best effort
	if idemKey != "" && h.d.DB != nil {
		if _, err := repo.CreateIdempotency(ctx, h.d.DB, agent, uid, idemKey, m.ID, http.StatusCreated, h.d.IdempotencyTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency key")
		}
	}
	ok(c, http.StatusCreated, MessageResponse{Message: m})
}

// SendImage godoc
// @ID          sendSupportImage
// @Summary     Send an image to a user
// @Tags        Support
// @Accept      multipart/form-data
// @Produce     json
// @Param       X-User-ID  header    string  true  "Agent id"
// @Param       userId     path      string  true  "End user id"
// @Param       file       formData  file    true  "Image"
// @Success     201  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage misconfigured"
// @Router      /support/conversations/{userId}/images [post]
func (h *Handlers) SendImage(c *gin.Context) {
	h.sendUpload(c, h.d.Support.SendImage)
}

// SendFile godoc
// @ID          sendSupportFile
// @Summary     Send a file to a user
// @Description PDFs go through the PDF pipeline; other files are stored as generic attachments.
// @Tags        Support
// @Accept      multipart/form-data
// @Produce     json
// @Param       X-User-ID  header    string  true  "Agent id"
// @Param       userId     path      string  true  "End user id"
// @Param       file       formData  file    true  "File"
// @Success     201  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage misconfigured"
// @Router      /support/conversations/{userId}/files [post]
func (h *Handlers) SendFile(c *gin.Context) {
	h.sendUpload(c, h.d.Support.SendFile)
}

type uploadSender func(ctx context.Context, userID, agentID string, f services.FileInput) (*domain.SupportMessage, error)

func (h *Handlers) sendUpload(c *gin.Context, send uploadSender) {
	agent, okAgent := requireAgent(c)
	if !okAgent {
		return
	}
	f, okFile := readFile(c)
	if !okFile {
		return
	}
	m, err := send(c.Request.Context(), c.Param("userId"), agent, f)
	if err != nil {
		sendFail(c, err)
		return
	}
	ok(c, http.StatusCreated, MessageResponse{Message: m})
}

// PostUserMessage godoc
// @ID          postUserMessage
// @Summary     Send a message to support as an end user
// @Tags        Support
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "End user id"
// @Param       body       body    handlers.SendMessageRequest  true  "Message"
// @Success     201  {object}  handlers.UserMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /support/messages [post]
func (h *Handlers) PostUserMessage(c *gin.Context) {
	uid, okUser := requireAgent(c)
	if !okUser {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	msg, reply, err := h.d.Support.PostUserMessage(c.Request.Context(), uid, req.Message)
	if err != nil {
		sendFail(c, err)
		return
	}
	ok(c, http.StatusCreated, UserMessageResponse{Message: msg, AutoReply: reply})
}

// SupportStream godoc
// @ID          supportStream
// @Summary     Live conversation store
// @Description Server-Sent Events; each "state" event carries the agent's full view.
// @Description Pass user_id to open that thread.
// @Tags        Support
// @Produce     text/event-stream
// @Param       X-User-ID  header  string  true   "Agent id"
// @Param       user_id    query   string  false  "Thread to open"
// @Router      /support/stream [get]
func (h *Handlers) SupportStream(c *gin.Context) {
	agent, okAgent := requireAgent(c)
	if !okAgent {
		return
	}
	ctx := c.Request.Context()

	store := h.d.NewStore(agent)
	defer store.Close()

	updates := make(chan services.ConversationState, 1)
	store.OnChange(func(st services.ConversationState) {
		// keep only the newest snapshot
		for {
			select {
			case updates <- st:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})

	if err := store.Open(ctx); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "open conversation store")
		return
	}
	if sel := strings.TrimSpace(c.Query("user_id")); sel != "" {
		if err := store.Select(ctx, sel); err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "open thread")
			return
		}
	}
	streamSSE(c, h.heartbeat(c), h.d.Shutdown, updates, func(services.ConversationState) string { return "state" })
}
