package offer

import (
	"net/http"

	"github.com/noah-isme/watt-media-api/internal/common"
	"github.com/noah-isme/watt-media-api/internal/obs"
)

// Handler exposes the offer code endpoints.
type Handler struct {
	scheme  Scheme
	enabled bool
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Scheme  Scheme
	Enabled bool
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{scheme: cfg.Scheme, enabled: cfg.Enabled}
}

type checkRequest struct {
	Code string `json:"code" validate:"max=128"`
}

// Check handles POST /api/v1/offers/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		writeDisabled(w)
		return
	}
	var req checkRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	result := Check(req.Code, h.scheme)
	obs.CountOfferCheck(string(result.Status))
	common.Data(w, http.StatusOK, result)
}

// Scheme handles GET /api/v1/offers/scheme.
func (h *Handler) Scheme(w http.ResponseWriter, _ *http.Request) {
	if !h.enabled {
		writeDisabled(w)
		return
	}
	common.Data(w, http.StatusOK, h.scheme)
}

func writeDisabled(w http.ResponseWriter) {
	common.JSONError(w, http.StatusNotFound, common.CodeOffersDisabled, "offers are not currently available", nil)
}
