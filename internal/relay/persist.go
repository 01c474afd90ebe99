package relay

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/server"
)

// persist writes res exactly once and waits for the write. The write runs on
// a context detached from the request so a client hanging up after the last
// fragment does not cancel it. Failures are logged only; the client has
// already received the full stream.
func (h *Handler) persist(ctx context.Context, res *domain.GenerationResult) {
	persistCtx, cancel := buildPersistenceContext(ctx, h.persistTimeout)
	defer cancel()

	persistCtx, span := h.tracer.Start(persistCtx, "relay.persist")
	defer span.End()

	id, err := h.store.Append(persistCtx, res)
	if err != nil {
		err = domain.ErrPersistence(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		server.AddError(ctx, err)
		h.logger.Error("failed to save result",
			slog.String("request_id", server.GetRequestID(ctx)),
			slog.String("uid", res.Identity.UID),
			slog.String("error", err.Error()),
		)
		return
	}

	span.SetAttributes(attribute.String("mindspark.history_id", id))
	server.AddLogField(ctx, "history_id", id)
}

// buildPersistenceContext keeps the request's values (request id, span,
// log fields) but drops its cancellation and deadline.
func buildPersistenceContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, timeout)
}
