package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/boostify/editor-agent/internal/export"
	"github.com/boostify/editor-agent/internal/project"
	"github.com/boostify/editor-agent/internal/timeline"
)

const (
	defaultVersion     = "0.1.0"
	maxRequestBody     = 1 << 20
	defaultExportsPage = 20
	maxExportsPage     = 200
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist(cfg.AllowedOrigins))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/presets", presetsHandler())
		r.Post("/runner/pause", runnerPauseHandler(cfg))
		r.Post("/runner/resume", runnerResumeHandler(cfg))

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", listProjectsHandler(cfg))
			r.Post("/", createProjectHandler(cfg))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", getProjectHandler(cfg))
				r.Patch("/", updateProjectHandler(cfg))
				r.Delete("/", deleteProjectHandler(cfg))

				r.Post("/tracks", addTrackHandler(cfg))
				r.Post("/tracks/reorder", reorderTracksHandler(cfg))
				r.Patch("/tracks/{trackID}", updateTrackHandler(cfg))
				r.Delete("/tracks/{trackID}", removeTrackHandler(cfg))
				r.Post("/tracks/{trackID}/solo", soloHandler(cfg))

				r.Post("/clips", addClipHandler(cfg))
				r.Patch("/clips/{clipID}", updateClipHandler(cfg))
				r.Delete("/clips/{clipID}", removeClipHandler(cfg))

				r.Post("/export/preview", previewExportHandler(cfg))
				r.With(LoopbackGuard()).Post("/export", submitExportHandler(cfg))
				r.Get("/export/state", exportStateHandler(cfg))
				r.Get("/export/edl", edlHandler(cfg))
				r.Get("/exports", listExportsHandler(cfg))
			})
		})

		r.Get("/exports/{id}", getExportHandler(cfg))
		r.Post("/exports/{id}/cancel", cancelExportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projects, _ := cfg.Repository.ListProjects(ctx)
		active, _ := cfg.Repository.ListActiveExports(ctx)

		state := "idle"
		if len(active) > 0 {
			state = "rendering"
		}
		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		resp := StatusResponse{
			State:         state,
			ProjectsCount: len(projects),
			ExportsActive: len(active),
		}
		if cfg.Runner != nil {
			resp.RunnerPaused = cfg.Runner.IsPaused()
		}

		if cfg.Health != nil {
			h := cfg.Health.Get(ctx)
			resp.Render = &RenderStatusResponse{
				Reachable: h.Reachable,
				Error:     h.Error,
			}
			if !h.CheckedAt.IsZero() {
				resp.Render.LastProbeAt = h.CheckedAt.Format(time.RFC3339)
			}
			if !h.Reachable {
				resp.LastError = h.Error
				if resp.State == "idle" {
					resp.State = "error"
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func presetsHandler() http.HandlerFunc {
	resp := PresetsResponse{
		Formats:      export.Formats,
		Resolutions:  export.Resolutions,
		AspectRatios: export.AspectRatios,
		Qualities:    export.Qualities,
		Defaults:     export.Settings{}.WithDefaults(""),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, resp)
	}
}

func runnerPauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			WriteError(w, http.StatusServiceUnavailable, "runner not configured", "UNAVAILABLE")
			return
		}
		cfg.Runner.Pause()
		w.WriteHeader(http.StatusNoContent)
	}
}

func runnerResumeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			WriteError(w, http.StatusServiceUnavailable, "runner not configured", "UNAVAILABLE")
			return
		}
		cfg.Runner.Resume()
		w.WriteHeader(http.StatusNoContent)
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Service.ListProjects(r.Context())
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectSummaryResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToSummary(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		p, err := cfg.Service.CreateProject(r.Context(), project.CreateInput{
			Name:        req.Name,
			AspectRatio: req.AspectRatio,
			AudioURL:    req.AudioURL,
		})
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.Service.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func updateProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProjectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		p, err := cfg.Service.UpdateProject(r.Context(), chi.URLParam(r, "id"), project.Update{
			Name:        req.Name,
			AspectRatio: req.AspectRatio,
			AudioURL:    req.AudioURL,
		})
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if !decodeBody(w, r, &req) {
			return
		}

		track, err := cfg.Service.AddTrack(r.Context(), chi.URLParam(r, "id"), req.Type)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, track)
	}
}

func updateTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timeline.TrackUpdate
		if !decodeBody(w, r, &req) {
			return
		}

		track, err := cfg.Service.UpdateTrack(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "trackID"), req)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, track)
	}
}

func removeTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.RemoveTrack(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "trackID")); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func reorderTracksHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReorderTracksRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.From == nil || req.To == nil {
			WriteError(w, http.StatusBadRequest, "from and to are required", "BAD_REQUEST")
			return
		}

		tracks, err := cfg.Service.ReorderTracks(r.Context(), chi.URLParam(r, "id"), *req.From, *req.To)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, TracksResponse{Tracks: tracks})
	}
}

func soloHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SoloRequest
		if !decodeBody(w, r, &req) {
			return
		}

		tracks, err := cfg.Service.SetSolo(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "trackID"), req.Solo)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, TracksResponse{Tracks: tracks})
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.TrackID == "" {
			WriteError(w, http.StatusBadRequest, "track_id is required", "BAD_REQUEST")
			return
		}

		clip, err := cfg.Service.AddClip(r.Context(), chi.URLParam(r, "id"), req.Clip())
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, clip)
	}
}

func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req timeline.ClipUpdate
		if !decodeBody(w, r, &req) {
			return
		}

		clip, err := cfg.Service.UpdateClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clipID"), req)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, clip)
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.RemoveClip(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clipID")); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func previewExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}

		preview, err := cfg.Service.PreviewExport(r.Context(), chi.URLParam(r, "id"), req.Input())
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, preview)
	}
}

// submitExportHandler answers 200 when the render service returned a file
// right away and 202 when it queued the render.
func submitExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if !decodeOptionalBody(w, r, &req) {
			return
		}

		job, err := cfg.Service.Export(r.Context(), chi.URLParam(r, "id"), req.Input())
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		status := http.StatusOK
		if job.Status == project.ExportStatusQueued {
			status = http.StatusAccepted
		}
		WriteJSON(w, status, ExportJobToResponse(job))
	}
}

func exportStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := cfg.Service.GetProject(r.Context(), id); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Service.ExportState(id))
	}
}

func edlHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fps := float64(export.DefaultFPS)
		if raw := r.URL.Query().Get("fps"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v <= 0 || v > 240 {
				WriteError(w, http.StatusBadRequest, "fps must be a positive number", "BAD_REQUEST")
				return
			}
			fps = v
		}

		id := chi.URLParam(r, "id")
		p, err := cfg.Service.GetProject(r.Context(), id)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		edl, err := cfg.Service.EDL(r.Context(), id, fps)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		name := export.FileName(p.Name, export.Format{Extension: ".edl"})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(edl))
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultExportsPage
		if raw := r.URL.Query().Get("limit"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = min(v, maxExportsPage)
		}

		jobs, err := cfg.Service.ListExports(r.Context(), chi.URLParam(r, "id"), limit)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		resp := ExportJobsResponse{Exports: make([]ExportJobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Exports[i] = ExportJobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Service.GetExport(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ExportJobToResponse(job))
	}
}

func cancelExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Service.CancelExport(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ExportJobToResponse(job))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// decodeOptionalBody accepts an empty body as the zero value.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}
