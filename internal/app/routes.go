package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Events
	r.HandleFunc("/api/event", deps.EventHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/event", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/event", deps.EventHandler.UpdateEvents).Methods("PATCH")
	r.HandleFunc("/api/event/{key}", deps.EventHandler.DeleteEvent).Methods("DELETE")

	// Report
	r.HandleFunc("/api/report", deps.ReportHandler.GenerateReport).Methods("POST")
}
