package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/auth"
	"github.com/pezhmanazar/phoenix-admin/internal/observability"
	"github.com/pezhmanazar/phoenix-admin/internal/persistence"
	apperrors "github.com/pezhmanazar/phoenix-admin/pkg/util/errorutil"
)

// ProxyHandler relays admin API calls to the backend with the admin
// credential attached. Bodies, statuses and headers pass through untouched.
type ProxyHandler struct {
	backendURL string
	prefix     string
	timeout    time.Duration
	guard      persistence.ReplyGuard
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewProxyHandler builds a handler forwarding paths under prefix to backendURL.
func NewProxyHandler(backendURL, prefix string, timeout time.Duration, guard persistence.ReplyGuard, metrics *observability.Metrics, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{
		backendURL: strings.TrimRight(backendURL, "/"),
		prefix:     strings.TrimRight(prefix, "/"),
		timeout:    timeout,
		guard:      guard,
		metrics:    metrics,
		logger:     logger.Named("proxy"),
	}
}

// Forward relays any request under the prefix.
func (h *ProxyHandler) Forward(c *fiber.Ctx) error {
	token, ok := auth.TokenFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not_authenticated")
	}

	target := h.backendURL + strings.TrimPrefix(c.Path(), h.prefix)
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		target += "?" + string(q)
	}

	// The backend authenticates by bearer token only; the browser session
	// cookie stays on this side.
	c.Request().Header.Del(fiber.HeaderCookie)
	c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	if err := proxy.DoTimeout(c, target, h.timeout); err != nil {
		h.logger.Warn("backend unreachable", zap.String("target", target), zap.Error(err))
		return apperrors.NewBadGateway(err)
	}
	return nil
}

// Reply relays the two reply endpoints, refusing a second reply to the same
// ticket from the same admin while the first is outstanding.
func (h *ProxyHandler) Reply(c *fiber.Ctx) error {
	token, ok := auth.TokenFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not_authenticated")
	}
	ticketID := c.Params("id")

	release, acquired, err := h.guard.Acquire(c.UserContext(), ticketID, token)
	switch {
	case err != nil:
		// Guard storage trouble must not block replies.
		h.logger.Warn("reply guard unavailable", zap.String("ticket_id", ticketID), zap.Error(err))
	case !acquired:
		h.metrics.RecordReply("proxy", "send_in_progress")
		return apperrors.ErrSendInProgress
	default:
		defer release()
	}

	if err := h.Forward(c); err != nil {
		return err
	}
	h.metrics.RecordReply("proxy", statusOutcome(c.Response().StatusCode()))
	return nil
}

func statusOutcome(status int) string {
	if status >= 200 && status < 300 {
		return "ok"
	}
	return "rejected"
}
