package region

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuysCode/giovannibot/backend/internal/model/region"
	"github.com/BuysCode/giovannibot/backend/pkg/utils"
)

// Handler serves the region catalogue.
type Handler struct {
	regions       region.Store
	defaultRegion string
	logger        *zap.Logger
}

// New creates a region handler.
func New(regions region.Store, defaultRegion string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{regions: regions, defaultRegion: defaultRegion, logger: logger}
}

// RegisterRoutes mounts the region routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/regions", h.handleListRegions)
	r.Get("/regions/{regionName}", h.handleGetRegion)
}

// View is what the chat page needs to render an empty region session.
type View struct {
	Topic       string   `json:"topic"`
	Known       bool     `json:"known"`
	Capital     string   `json:"capital,omitempty"`
	Welcome     string   `json:"welcome"`
	Prompt      string   `json:"prompt"`
	Placeholder string   `json:"placeholder"`
	Suggestions []string `json:"suggestions"`
}

// NewView builds the view for a raw route segment.
func NewView(regions region.Store, rawName, defaultRegion string) View {
	topic := region.NormalizeTopic(rawName, defaultRegion)
	view := View{
		Topic:       topic,
		Welcome:     "Bem-vindo a " + topic,
		Prompt:      "O que você deseja saber sobre " + topic + " hoje?",
		Placeholder: "Pergunte algo sobre " + topic + "...",
		Suggestions: region.Suggestions(),
	}
	if r, ok := regions.FindByTopic(topic); ok {
		view.Known = true
		view.Capital = r.Capital
	}
	return view
}

func (h *Handler) handleListRegions(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.regions.List())
}

func (h *Handler) handleGetRegion(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, NewView(h.regions, chi.URLParam(r, "regionName"), h.defaultRegion))
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload any) {
	if err := utils.RespondJSON(w, status, payload); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}
