package site

import (
	"net/http"

	"github.com/noah-isme/watt-media-api/internal/common"
)

// Handler exposes the navigation endpoint.
type Handler struct {
	Navigation *Navigation
}

type navigationResponse struct {
	BasePath string         `json:"basePath"`
	Links    []ResolvedLink `json:"links"`
}

// Get handles GET /api/v1/navigation[?current=/services].
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Navigation == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "navigation not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, navigationResponse{
		BasePath: h.Navigation.BasePath(),
		Links:    h.Navigation.Links(r.URL.Query().Get("current")),
	})
}
