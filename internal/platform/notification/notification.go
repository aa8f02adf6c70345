// Package notification delivers user-facing messages (the toast equivalent
// of the web UI) for workflow outcomes: booking conflicts, partial successes,
// payment-required rejections. Notices are kept in memory per recipient and
// drained by the frontend; they are advisory and never load-bearing.
package notification

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Severity classifies a notice for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a single user-facing message.
type Notice struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Notifier is the interface services use to emit notices.
type Notifier interface {
	Notify(ctx context.Context, recipient string, severity Severity, message string)
}

// NopNotifier discards all notices.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, Severity, string) {}

// Center is an in-memory Notifier with retrieval for the UI.
type Center struct {
	mu      sync.RWMutex
	notices map[string][]*Notice // recipient -> notices, newest last
}

func NewCenter() *Center {
	return &Center{notices: make(map[string][]*Notice)}
}

// Notify records a notice for the recipient.
func (c *Center) Notify(_ context.Context, recipient string, severity Severity, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notices[recipient] = append(c.notices[recipient], &Notice{
		ID:        uuid.New().String(),
		Recipient: recipient,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// List returns the recipient's notices, newest first.
func (c *Center) List(recipient string, unreadOnly bool) []*Notice {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Notice
	for _, n := range c.notices[recipient] {
		if unreadOnly && n.Read {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// MarkRead flags a notice as read. Returns false when the notice is unknown.
func (c *Center) MarkRead(recipient, noticeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.notices[recipient] {
		if n.ID == noticeID {
			n.Read = true
			return true
		}
	}
	return false
}

// Handler exposes the notice feed over HTTP.
type Handler struct {
	center *Center
}

func NewHandler(center *Center) *Handler {
	return &Handler{center: center}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications", h.List)
	g.POST("/notifications/:id/read", h.MarkRead)
}

func (h *Handler) List(c echo.Context) error {
	recipient := c.QueryParam("recipient")
	if recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient is required")
	}
	unreadOnly := c.QueryParam("unread") == "true"
	return c.JSON(http.StatusOK, h.center.List(recipient, unreadOnly))
}

func (h *Handler) MarkRead(c echo.Context) error {
	recipient := c.QueryParam("recipient")
	if recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient is required")
	}
	if !h.center.MarkRead(recipient, c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "notice not found")
	}
	return c.NoContent(http.StatusNoContent)
}
