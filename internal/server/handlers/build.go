package handlers

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"io"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/anchorbuilder/internal/build"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
	"git.home.luguber.info/inful/anchorbuilder/internal/observability"
)

// BuildIDHeader carries the identifier of the build that produced a response.
const BuildIDHeader = "X-Build-ID"

// Builder runs a build to completion.
type Builder interface {
	Build(ctx context.Context, req build.Request) *build.Result
}

// BuildHandlers contains the build endpoint.
type BuildHandlers struct {
	builder      Builder
	maxBodyBytes int64
	errorAdapter *errors.HTTPErrorAdapter
}

// NewBuildHandlers creates build handlers. maxBodyBytes <= 0 disables the body limit.
func NewBuildHandlers(builder Builder, maxBodyBytes int64) *BuildHandlers {
	return &BuildHandlers{
		builder:      builder,
		maxBodyBytes: maxBodyBytes,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// decodeSingle decodes exactly one JSON value from body. Anything but
// whitespace after it is an error.
func decodeSingle(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !stdErrors.Is(err, io.EOF) {
		if err == nil {
			err = stdErrors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// HandleBuild decodes a build request and runs it. Once the body decodes the
// response is always 200; the outcome is reported in the JSON status field.
func (h *BuildHandlers) HandleBuild(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req build.Request
	if err := decodeSingle(r.Body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if stdErrors.As(err, &tooLarge) {
			h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("request body too large").
				WithContext("limit_bytes", tooLarge.Limit).
				Build())
			return
		}
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("invalid JSON body").
			WithCause(err).
			Build())
		return
	}
	if req.Files == nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("missing files field").Build())
		return
	}

	// the build outlives a disconnected client
	ctx := observability.WithRemoteAddr(context.WithoutCancel(r.Context()), r.RemoteAddr)
	res := h.builder.Build(ctx, req)

	w.Header().Set(BuildIDHeader, res.ID)
	if err := writeJSON(w, http.StatusOK, res); err != nil {
		slog.Error("failed to encode build response", logfields.BuildID(res.ID), logfields.Error(err))
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to encode build response").Build())
	}
}
