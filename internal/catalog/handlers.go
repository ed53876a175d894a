package catalog

import (
	"net/http"
	"strings"

	"github.com/noah-isme/watt-media-api/internal/common"
	"github.com/noah-isme/watt-media-api/internal/obs"
	"github.com/noah-isme/watt-media-api/internal/offer"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	service       *Service
	scheme        offer.Scheme
	offersEnabled bool
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service       *Service
	Scheme        offer.Scheme
	OffersEnabled bool
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, scheme: cfg.Scheme, offersEnabled: cfg.OffersEnabled}
}

type pricingResponse struct {
	Offer *offer.Result `json:"offer,omitempty"`
	PriceList
}

// Services handles GET /api/v1/services.
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, h.service.Services())
}

// Pricing handles GET /api/v1/pricing. With ?code= and offers enabled the
// offer check result is included and prices are discounted only when the
// code is valid.
func (h *Handler) Pricing(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog service not configured", nil)
		return
	}

	var resp pricingResponse
	var discount int64
	if code := r.URL.Query().Get("code"); h.offersEnabled && strings.TrimSpace(code) != "" {
		result := offer.Check(code, h.scheme)
		obs.CountOfferCheck(string(result.Status))
		resp.Offer = &result
		discount = result.DiscountAmount()
	}

	resp.PriceList = h.service.Priced(r.Context(), discount)
	common.Data(w, http.StatusOK, resp)
}
