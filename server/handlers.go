package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"smpctl/cache"
	"smpctl/config"
	"smpctl/core/audio"
	"smpctl/core/auth"
	"smpctl/core/engine"
	"smpctl/logger"
	"smpctl/repository"
)

// Deps are the collaborators of the API. Journal and Drivers are optional.
type Deps struct {
	Client  *engine.Client
	Config  *config.Config
	Journal repository.JournalRepository
	Drivers *cache.DriverCache
	Probes  *audio.Registry
	Session string
}

// APIHandler 处理所有API请求
type APIHandler struct {
	client  *engine.Client
	cfg     *config.Config
	tokens  *auth.TokenManager
	journal repository.JournalRepository
	drivers *cache.DriverCache
	probes  *audio.Registry
	session string
	hub     *EventHub
}

// NewAPIHandler 创建新的API处理器. The handler registers its event hub as an
// observer of the client; call Close to stop the hub.
func NewAPIHandler(d Deps) *APIHandler {
	probes := d.Probes
	if probes == nil {
		probes = audio.DefaultRegistry()
	}
	h := &APIHandler{
		client:  d.Client,
		cfg:     d.Config,
		tokens:  auth.NewTokenManager(d.Config.JWTSecret, d.Config.JWTTTL),
		journal: d.Journal,
		drivers: d.Drivers,
		probes:  probes,
		session: d.Session,
		hub:     NewEventHub(d.Session),
	}
	go h.hub.Run()
	d.Client.AddObserver(h.hub)
	return h
}

// Close stops the event hub and disconnects websocket clients.
func (h *APIHandler) Close() {
	h.hub.Stop()
}

// Hub returns the websocket event hub.
func (h *APIHandler) Hub() *EventHub { return h.hub }

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// engineErrorStatus maps an engine error to an HTTP status.
func engineErrorStatus(err error) int {
	var cmdErr *engine.CommandError
	switch {
	case errors.Is(err, engine.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &cmdErr):
		return http.StatusBadGateway
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HealthHandler 健康检查
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}
