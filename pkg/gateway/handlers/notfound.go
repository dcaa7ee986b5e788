package handlers

import (
	"net/http"

	"github.com/vango-go/toyvoice/pkg/gateway/apierror"
	"github.com/vango-go/toyvoice/pkg/gateway/mw"
)

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	apierror.WriteJSON(w, http.StatusNotFound, &apierror.Error{
		Type:      apierror.ErrNotFound,
		Message:   "not found",
		RequestID: reqID,
	})
}

// UnavailableHandler is mounted on store-backed routes when the gateway runs
// without a database.
type UnavailableHandler struct{}

func (h UnavailableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	apierror.WriteJSON(w, http.StatusServiceUnavailable, &apierror.Error{
		Type:      apierror.ErrUnavailable,
		Message:   "no database configured",
		RequestID: reqID,
	})
}
