// Package packages exposes the dispatch authority's request/response
// operations over HTTP.
package packages

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kilianp07/fleetcoord/core/dispatch"
	"github.com/kilianp07/fleetcoord/core/store"
)

// CreateRequest is the body of POST /api/packages.
type CreateRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// CreateResponse carries the allocated package ID.
type CreateResponse struct {
	PackageID int64 `json:"package_id"`
}

// StatusResponse carries the current package status.
type StatusResponse struct {
	PackageID int64  `json:"package_id"`
	Status    string `json:"status"`
}

// CountResponse carries a delivered-package count.
type CountResponse struct {
	VehicleID string `json:"vehicle_id"`
	Count     int    `json:"count"`
}

// NewHandler returns the HTTP handler for the dispatch authority API.
func NewHandler(m *dispatch.Matcher) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/packages", createHandler(m))
	mux.HandleFunc("/api/packages/status", statusHandler(m))
	mux.HandleFunc("/api/vehicles/delivered", deliveredHandler(m))
	return mux
}

func createHandler(m *dispatch.Matcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		id := m.CreatePackage(req.Origin, req.Destination)
		writeJSON(w, http.StatusCreated, CreateResponse{PackageID: id})
	}
}

func statusHandler(m *dispatch.Matcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid package id", http.StatusBadRequest)
			return
		}
		st, err := m.PackageStatus(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "package not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{PackageID: id, Status: st.String()})
	}
}

func deliveredHandler(m *dispatch.Matcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		vehicleID := r.URL.Query().Get("vehicle_id")
		if vehicleID == "" {
			http.Error(w, "vehicle_id is required", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, CountResponse{VehicleID: vehicleID, Count: m.DeliveredCountFor(vehicleID)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
