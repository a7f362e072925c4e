package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/boostify/editor-agent/internal/export"
	"github.com/boostify/editor-agent/internal/project"
	"github.com/boostify/editor-agent/internal/render"
	"github.com/boostify/editor-agent/internal/timeline"
)

// writeServiceError maps domain errors onto HTTP statuses. Anything it does
// not recognise is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var statusErr *render.StatusError

	switch {
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, project.ErrClipNotFound),
		errors.Is(err, project.ErrExportNotFound),
		errors.Is(err, timeline.ErrTrackNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")

	case errors.Is(err, export.ErrNoClips):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NO_CLIPS")

	case errors.Is(err, export.ErrUnknownPreset),
		errors.Is(err, export.ErrInvalidDuration),
		errors.Is(err, timeline.ErrInvalidClip),
		errors.Is(err, timeline.ErrInvalidTrackType),
		errors.Is(err, project.ErrInvalidReorder),
		errors.Is(err, project.ErrInvalidName):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")

	case errors.Is(err, timeline.ErrTrackLocked):
		WriteError(w, http.StatusConflict, err.Error(), "TRACK_LOCKED")

	case errors.Is(err, export.ErrExportInProgress):
		WriteError(w, http.StatusConflict, err.Error(), "EXPORT_IN_PROGRESS")

	case errors.Is(err, project.ErrExportFinished):
		WriteError(w, http.StatusConflict, err.Error(), "EXPORT_FINISHED")

	case errors.Is(err, render.ErrUnavailable):
		WriteError(w, http.StatusServiceUnavailable, err.Error(), "RENDER_UNAVAILABLE")

	case errors.As(err, &statusErr):
		WriteError(w, http.StatusBadGateway, statusErr.Message, "RENDER_ERROR")

	case errors.Is(err, render.ErrTransport), errors.Is(err, export.ErrEmptyResponse):
		WriteError(w, http.StatusBadGateway, err.Error(), "RENDER_ERROR")

	default:
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
