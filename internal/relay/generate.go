package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/mindspark/internal/core/domain"
	"github.com/tjfontaine/mindspark/internal/server"
)

// errClientGone marks a failed write to the response body.
var errClientGone = errors.New("client write failed")

// HandleGenerate serves POST /api/generate.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := server.GetIdentity(ctx)
	if identity == nil {
		server.WriteError(w, r, domain.ErrAuthentication("no token provided"))
		return
	}

	var req domain.GenerationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		server.WriteError(w, r, domain.ErrInvalidRequest("invalid JSON body").WithCause(err))
		return
	}
	req.Identity = *identity
	if err := req.Validate(); err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.AddLogField(ctx, "topic", req.Topic)

	meta, err := h.describe(ctx, req.Topic)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}
	server.AddLogField(ctx, "image_url", meta.ArtifactReference)

	hdr := w.Header()
	hdr.Set(domain.ImageURLHeader, meta.ArtifactReference)
	hdr.Set("Content-Type", "text/plain; charset=utf-8")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("X-Content-Type-Options", "nosniff")

	rc := http.NewResponseController(w)
	w.WriteHeader(http.StatusOK)
	if err := flush(rc); err != nil {
		server.AddError(ctx, err)
		return
	}

	fullText, err := h.stream(ctx, w, rc, req.Topic)
	if err != nil {
		server.AddError(ctx, err)
		h.logger.Warn("stream ended early, result not saved",
			slog.String("request_id", server.GetRequestID(ctx)),
			slog.String("uid", req.Identity.UID),
			slog.String("error", err.Error()),
		)
		return
	}

	h.persist(ctx, &domain.GenerationResult{
		Identity:          req.Identity,
		Topic:             req.Topic,
		FullText:          fullText,
		ArtifactReference: meta.ArtifactReference,
		CreatedAt:         h.now(),
	})
}

func (h *Handler) describe(ctx context.Context, topic string) (domain.AuxiliaryMetadata, error) {
	ctx, span := h.tracer.Start(ctx, "relay.describe", trace.WithAttributes(
		attribute.String("mindspark.topic", topic),
	))
	defer span.End()

	meta, err := h.resolver.Describe(ctx, topic)
	if err != nil {
		if !domain.IsType(err, domain.ErrorTypeUpstreamMetadata) {
			err = domain.ErrUpstreamMetadata(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "describe failed")
		return domain.AuxiliaryMetadata{}, err
	}
	span.SetAttributes(attribute.String("mindspark.image_url", meta.ArtifactReference))
	return meta, nil
}

// stream forwards fragments in arrival order, flushing after each one, and
// returns the concatenated text once the sequence ends without error.
func (h *Handler) stream(ctx context.Context, w io.Writer, rc *http.ResponseController, topic string) (string, error) {
	ctx, span := h.tracer.Start(ctx, "relay.stream")
	defer span.End()

	var acc strings.Builder
	fragments := 0
	defer func() {
		span.SetAttributes(
			attribute.Int("mindspark.fragments", fragments),
			attribute.Int("mindspark.bytes", acc.Len()),
		)
		server.AddLogInt(ctx, "fragments", fragments)
	}()

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stream failed")
		return "", err
	}

	for frag, err := range h.producer.StreamAnswer(ctx, topic) {
		if err != nil {
			if ctx.Err() != nil {
				return fail(errors.Join(errClientGone, err))
			}
			if !domain.IsType(err, domain.ErrorTypeUpstreamStream) {
				err = domain.ErrUpstreamStream(err)
			}
			return fail(err)
		}

		acc.WriteString(string(frag))
		fragments++

		if _, err := io.WriteString(w, string(frag)); err != nil {
			return fail(errors.Join(errClientGone, err))
		}
		if err := flush(rc); err != nil {
			return fail(errors.Join(errClientGone, err))
		}
	}

	if h.counter != nil {
		n := h.counter.Count(acc.String())
		span.SetAttributes(attribute.Int("mindspark.completion_tokens", n))
		server.AddLogInt(ctx, "completion_tokens", n)
	}
	return acc.String(), nil
}

func flush(rc *http.ResponseController) error {
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
