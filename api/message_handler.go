package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"chat-vault/errors"
	"chat-vault/realtime"
	"chat-vault/services"
	"chat-vault/validation"

	"github.com/gin-gonic/gin"
)

type handler struct {
	log      *slog.Logger
	messages services.IMessageService
	queries  services.IQueryService
	hub      *realtime.Hub
}

func newHandler(log *slog.Logger, messages services.IMessageService, queries services.IQueryService, hub *realtime.Hub) *handler {
	return &handler{log: log, messages: messages, queries: queries, hub: hub}
}

func (h *handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": h.hub.Count()})
}

// CreateMessage handles POST /api/messages.
func (h *handler) CreateMessage(c *gin.Context) {
	if c.Request.ContentLength == 0 {
		c.JSON(http.StatusBadRequest, errorBody("EMPTY_PAYLOAD", "request body is empty", nil))
		return
	}

	var payload validation.MessagePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_JSON", "malformed JSON in request body", nil))
		return
	}

	message, err := h.messages.Admit(c.Request.Context(), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": message})
}

// GetMessagesBySession handles GET /api/messages/:session_id.
func (h *handler) GetMessagesBySession(c *gin.Context) {
	sessionID := c.Param("session_id")
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)
	sender := c.Query("sender")

	page, err := h.queries.GetSessionPage(c.Request.Context(), sessionID, limit, offset, sender)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": page.Data, "pagination": page.Pagination})
}

// GetMessageByID handles GET /api/message/:message_id.
func (h *handler) GetMessageByID(c *gin.Context) {
	message, err := h.queries.GetMessage(c.Request.Context(), c.Param("message_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": message})
}

// GetSessionStats handles GET /api/sessions/:session_id/stats.
func (h *handler) GetSessionStats(c *gin.Context) {
	stats, err := h.queries.GetStats(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": stats})
}

// SearchMessages handles GET /api/messages/search/all.
func (h *handler) SearchMessages(c *gin.Context) {
	query := c.Query("query")
	limit := intQuery(c, "limit", 0)
	offset := intQuery(c, "offset", 0)

	page, err := h.queries.SearchGlobally(c.Request.Context(), query, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": page.Data, "pagination": page.Pagination})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func errorBody(code, message string, details any) gin.H {
	return gin.H{
		"status": "error",
		"error":  gin.H{"code": code, "message": message, "details": details},
	}
}

// respondError maps typed service errors to the stable wire envelope.
// Anything untyped is a bug or a storage failure: logged in full, returned
// as an opaque internal error.
func (h *handler) respondError(c *gin.Context, err error) {
	if perr, ok := errors.AsProcessing(err); ok {
		if perr.Status >= http.StatusInternalServerError {
			h.log.Error("request failed", "code", perr.Code, "error", err)
		}
		var details any
		if perr.Details != nil {
			details = perr.Details
		}
		c.JSON(perr.Status, errorBody(string(perr.Code), perr.Message, details))
		return
	}

	h.log.Error("unexpected error", "error", err)
	c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", "internal server error", nil))
}
