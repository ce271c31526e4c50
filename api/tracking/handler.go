// Package tracking exposes the tracking authority's operations over HTTP.
// The watch endpoint streams newline-delimited JSON so a plain HTTP client
// can follow a vehicle without a message broker.
package tracking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/fleetcoord/core/track"
	"github.com/kilianp07/fleetcoord/infra/logger"
)

// CountResponse carries a delivered-package count.
type CountResponse struct {
	VehicleID string `json:"vehicle_id"`
	Count     int    `json:"count"`
}

// NewHandler returns the HTTP handler for the tracking authority API.
func NewHandler(hub *track.Hub) http.Handler {
	log := logger.New("tracking_api")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/vehicles/watch", watchHandler(hub, log))
	mux.HandleFunc("/api/vehicles/delivered", deliveredHandler(hub))
	return mux
}

func watchHandler(hub *track.Hub, log logger.Logger) http.HandlerFunc {
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
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		enc := json.NewEncoder(w)
		for loc := range hub.Watch(r.Context(), vehicleID) {
			if err := enc.Encode(loc); err != nil {
				log.Debugf("watch stream for %s ended: %v", vehicleID, err)
				return
			}
			flusher.Flush()
		}
	}
}

func deliveredHandler(hub *track.Hub) http.HandlerFunc {
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
		count, err := hub.DeliveredCountFor(r.Context(), vehicleID)
		if err != nil {
			if errors.Is(err, track.ErrCountsUnavailable) {
				http.Error(w, "delivery counts unavailable", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(CountResponse{VehicleID: vehicleID, Count: count}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
