package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/biotrack/internal/model"
	"github.com/erazemk/biotrack/internal/shipment"
)

// SpecimensHandler handles shipment specimen endpoints.
type SpecimensHandler struct {
	Server *Server
}

// CanAdd handles GET /shipments/specimens/canadd/{inventoryId}.
func (h *SpecimensHandler) CanAdd(w http.ResponseWriter, r *http.Request) {
	sp, err := h.Server.CanAddSpecimen(r.PathValue("inventoryId"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sp)
}

// Add handles POST /shipments/specimens/{id}.
func (h *SpecimensHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req shipment.AddSpecimensBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sh, err := h.Server.AddSpecimens(r.PathValue("id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sh)
}

// Tag handles POST /shipments/specimens/{tag}/{id}.
func (h *SpecimensHandler) Tag(w http.ResponseWriter, r *http.Request) {
	tag := model.ShipmentItemState(r.PathValue("tag"))
	if !tag.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid specimen tag: "+string(tag))
		return
	}
	var req shipment.TagSpecimensBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sh, err := h.Server.TagSpecimens(r.PathValue("id"), tag, req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sh)
}

// List handles GET /shipments/specimens/{id}.
func (h *SpecimensHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := h.Server.ListSpecimens(r.PathValue("id"), q)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Remove handles DELETE /shipments/specimens/{shipmentId}/{id}/{version}.
func (h *SpecimensHandler) Remove(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.ParseInt(r.PathValue("version"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid version")
		return
	}
	sh, err := h.Server.RemoveSpecimen(r.PathValue("shipmentId"), r.PathValue("id"), version)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sh)
}
