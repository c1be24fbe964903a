package authapi

import (
	"context"
	"log/slog"
	"net"
)

// Auth outcomes are written as structured log events and counted in metrics.
// Phones are never logged in full.

func (h *Handler) auditLoginFailed(ctx context.Context, method string, ip net.IP, phone, reason string) {
	h.metrics.AuthAttempt(method, reason)
	h.log.LogAttrs(ctx, slog.LevelWarn, "auth.login.fail",
		slog.String("method", method),
		slog.String("reason", reason),
		slog.String("phone", redactPhone(phone)),
		slog.Any("ip", ip),
	)
}

func (h *Handler) auditLoginSuccess(ctx context.Context, method string, ip net.IP, userID string) {
	h.metrics.AuthAttempt(method, "ok")
	h.log.LogAttrs(ctx, slog.LevelInfo, "auth.login.success",
		slog.String("method", method),
		slog.String("user_id", userID),
		slog.Any("ip", ip),
	)
}

func (h *Handler) auditRegistered(ctx context.Context, ip net.IP, userID string) {
	h.metrics.AuthAttempt("register", "ok")
	h.log.LogAttrs(ctx, slog.LevelInfo, "auth.register.success",
		slog.String("user_id", userID),
		slog.Any("ip", ip),
	)
}

func (h *Handler) auditRateLimited(ctx context.Context, method string, ip net.IP) {
	h.metrics.AuthAttempt(method, "rate_limited")
	h.log.LogAttrs(ctx, slog.LevelWarn, "auth.rate_limited",
		slog.String("method", method),
		slog.Any("ip", ip),
	)
}

func redactPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
