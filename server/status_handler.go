package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"smpctl/core/audio"
	"smpctl/repository"
)

// DriversHandler lists the installed drivers, from the cache when enabled.
func (h *APIHandler) DriversHandler(w http.ResponseWriter, r *http.Request) {
	if h.drivers == nil {
		drivers, err := h.client.Drivers(r.Context())
		if err != nil {
			writeError(w, engineErrorStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"drivers": drivers, "cached": false})
		return
	}

	drivers, cached, err := h.drivers.Get(r.Context(), h.client.Drivers)
	if err != nil {
		writeError(w, engineErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"drivers": drivers, "cached": cached})
}

// StatusSnapshot is what GET /api/status reports.
type StatusSnapshot struct {
	Session     string `json:"session,omitempty"`
	Initialized bool   `json:"initialized"`
	Playing     []int  `json:"playing,omitempty"`
	Version     string `json:"version,omitempty"`
}

// StatusHandler 引擎状态快照
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context())
	if err != nil {
		writeError(w, engineErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// snapshot skips playing and version until the engine is initialized,
// since both fail before init.
func (h *APIHandler) snapshot(ctx context.Context) (*StatusSnapshot, error) {
	snap := &StatusSnapshot{Session: h.session}

	initialized, err := h.client.Initialized(ctx)
	if err != nil {
		return nil, err
	}
	snap.Initialized = initialized
	if !initialized {
		return snap, nil
	}

	if snap.Playing, err = h.client.Playing(ctx); err != nil {
		return nil, err
	}
	if snap.Version, err = h.client.Version(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// JournalHandler returns recent journal entries.
func (h *APIHandler) JournalHandler(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal is disabled")
		return
	}

	q := repository.JournalQuery{
		SessionID: r.URL.Query().Get("session"),
		Name:      r.URL.Query().Get("name"),
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = limit
	}

	records, err := h.journal.Recent(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// ProbeRequest names a file on the machine running the server.
type ProbeRequest struct {
	Path string `json:"path"`
}

// ProbeHandler 读取音频文件信息
func (h *APIHandler) ProbeHandler(w http.ResponseWriter, r *http.Request) {
	var req ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	info, err := h.probes.ProbeFile(req.Path)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, info)
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, audio.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, audio.ErrInvalidFile):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
