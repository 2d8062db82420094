package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/biotrack/internal/metrics"
)

// NewRouter creates the API router with all endpoints registered. m may be nil;
// otherwise requests are recorded and exposed on /metrics.
func NewRouter(srv *Server, jwtSecret string, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Server: srv, JWTSecret: jwtSecret}
	shipments := &ShipmentsHandler{Server: srv}
	specimens := &SpecimensHandler{Server: srv}

	authMW := AuthMiddleware(jwtSecret)
	read := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	write := func(h http.HandlerFunc) http.Handler { return authMW(RequireModify(h)) }

	// Public: login.
	mux.HandleFunc("POST /auth/login", authHandler.Login)

	// Shipments: read (all roles), write (coordinator).
	mux.Handle("GET /shipments/list", read(shipments.List))
	mux.Handle("GET /shipments/{id}", read(shipments.Get))
	mux.Handle("POST /shipments/{$}", write(shipments.Add))
	mux.Handle("POST /shipments/courier/{id}", write(shipments.UpdateCourier))
	mux.Handle("POST /shipments/trackingnumber/{id}", write(shipments.UpdateTrackingNumber))
	mux.Handle("POST /shipments/fromlocation/{id}", write(shipments.UpdateFromLocation))
	mux.Handle("POST /shipments/tolocation/{id}", write(shipments.UpdateToLocation))
	mux.Handle("POST /shipments/state/{transition}/{id}", write(shipments.ChangeState))
	mux.Handle("DELETE /shipments/{id}/{version}", write(shipments.Remove))

	// Shipment specimens.
	mux.Handle("GET /shipments/specimens/canadd/{inventoryId}", read(specimens.CanAdd))
	mux.Handle("GET /shipments/specimens/{id}", read(specimens.List))
	mux.Handle("POST /shipments/specimens/{id}", write(specimens.Add))
	mux.Handle("POST /shipments/specimens/{tag}/{id}", write(specimens.Tag))
	mux.Handle("DELETE /shipments/specimens/{shipmentId}/{id}/{version}", write(specimens.Remove))

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	return LoggingMiddleware(logger, m)(mux)
}
