package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/biotrack/internal/shipment"
)

// ShipmentsHandler handles shipment endpoints.
type ShipmentsHandler struct {
	Server *Server
}

// Get handles GET /shipments/{id}.
func (h *ShipmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Server.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sh)
}

// List handles GET /shipments/list.
func (h *ShipmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := h.Server.Search(q)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Add handles POST /shipments/.
func (h *ShipmentsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req shipment.AddBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sh, err := h.Server.Add(req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sh)
}

// UpdateCourier handles POST /shipments/courier/{id}.
func (h *ShipmentsHandler) UpdateCourier(w http.ResponseWriter, r *http.Request) {
	var req shipment.CourierBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.update(w, r, req.ExpectedVersion, shipment.CourierName(req.CourierName))
}

// UpdateTrackingNumber handles POST /shipments/trackingnumber/{id}.
func (h *ShipmentsHandler) UpdateTrackingNumber(w http.ResponseWriter, r *http.Request) {
	var req shipment.TrackingNumberBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.update(w, r, req.ExpectedVersion, shipment.TrackingNumber(req.TrackingNumber))
}

// UpdateFromLocation handles POST /shipments/fromlocation/{id}.
func (h *ShipmentsHandler) UpdateFromLocation(w http.ResponseWriter, r *http.Request) {
	var req shipment.LocationBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.update(w, r, req.ExpectedVersion, shipment.FromLocation(req.LocationID))
}

// UpdateToLocation handles POST /shipments/tolocation/{id}.
func (h *ShipmentsHandler) UpdateToLocation(w http.ResponseWriter, r *http.Request) {
	var req shipment.LocationBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.update(w, r, req.ExpectedVersion, shipment.ToLocation(req.LocationID))
}

func (h *ShipmentsHandler) update(w http.ResponseWriter, r *http.Request, version int64, u shipment.Update) {
	sh, err := h.Server.Update(r.PathValue("id"), version, u)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sh)
}

// ChangeState handles POST /shipments/state/{transition}/{id}.
func (h *ShipmentsHandler) ChangeState(w http.ResponseWriter, r *http.Request) {
	t, err := shipment.ParseTransition(r.PathValue("transition"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req shipment.StateBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := shipment.StateChange{Transition: t}
	switch t {
	case shipment.TransitionSkipToSent:
		c.Time, c.SkipTime = req.TimePacked, req.TimeSent
	case shipment.TransitionSkipToUnpacked:
		c.Time, c.SkipTime = req.TimeReceived, req.TimeUnpacked
	default:
		c.Time = req.Datetime
	}

	sh, err := h.Server.ChangeState(r.PathValue("id"), c, req.ExpectedVersion)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sh)
}

// Remove handles DELETE /shipments/{id}/{version}.
func (h *ShipmentsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.ParseInt(r.PathValue("version"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid version")
		return
	}
	if err := h.Server.Remove(r.PathValue("id"), version); err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, true)
}
