// Package handlers implements the HTTP surface: stream upgrades, the
// toy/agent/provider catalog, memory ingestion and search, and health.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-go/toyvoice/pkg/gateway/apierror"
	"github.com/vango-go/toyvoice/pkg/gateway/mw"
	"github.com/vango-go/toyvoice/pkg/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON strictly decodes a request body; unknown fields are rejected so
// client typos surface as 400s instead of silently dropped fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.InvalidRequest(fmt.Sprintf("invalid request body: %v", err), "")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.InvalidRequest(fmt.Sprintf("invalid %s %q", name, raw), name)
	}
	return id, nil
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	apierror.Write(w, reqID, err)
}

// storeErr converts the store's not-found sentinel into the API error shape.
func storeErr(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierror.NotFound(resource)
	}
	return err
}
