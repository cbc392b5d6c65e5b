package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
)

// OutputReader reads the outputs of the last build.
type OutputReader interface {
	ReadArtifact(ctx context.Context) ([]byte, error)
	ReadIDL(ctx context.Context) ([]byte, error)
}

// ArtifactHandlers serve build outputs straight from the workspace.
type ArtifactHandlers struct {
	outputs      OutputReader
	artifactName string
	errorAdapter *errors.HTTPErrorAdapter
}

// NewArtifactHandlers creates artifact handlers. artifactPath names the
// download in the Content-Disposition header.
func NewArtifactHandlers(outputs OutputReader, artifactPath string) *ArtifactHandlers {
	return &ArtifactHandlers{
		outputs:      outputs,
		artifactName: path.Base(artifactPath),
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleDownload serves the compiled program as an attachment.
func (h *ArtifactHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	data, err := h.outputs.ReadArtifact(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.artifactName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleIDL serves the interface description JSON emitted by the last build.
func (h *ArtifactHandlers) HandleIDL(w http.ResponseWriter, r *http.Request) {
	data, err := h.outputs.ReadIDL(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
