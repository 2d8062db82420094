package shipment

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/model"
)

// Operation names. Failures are tagged with the operation that produced them.
const (
	OpGet            = "[Shipment] Get"
	OpSearch         = "[Shipment] Search"
	OpAdd            = "[Shipment] Add"
	OpUpdate         = "[Shipment] Update"
	OpRemove         = "[Shipment] Remove"
	OpCanAddSpecimen = "[Shipment] Can Add Specimen"
	OpAddSpecimens   = "[Shipment] Add Specimens"
	OpTagSpecimens   = "[Shipment] Tag Specimens"
	OpListSpecimens  = "[Shipment] List Specimens"
	OpRemoveSpecimen = "[Shipment] Remove Specimen"
)

// Request is an encoded API call, relative to the API base.
type Request struct {
	Op     string
	Method string
	Path   string
	Query  url.Values
	Body   any
}

var validate = validator.New()

// AddBody is the body of an add-shipment request.
type AddBody struct {
	CourierName    string `json:"courierName" validate:"required"`
	TrackingNumber string `json:"trackingNumber" validate:"required"`
	FromLocationID string `json:"fromLocationId" validate:"required"`
	ToLocationID   string `json:"toLocationId" validate:"required"`
}

// Get builds the request fetching one shipment.
func Get(id string) (Request, error) {
	if id == "" {
		return Request{}, errs.Caller(ErrNotPersisted).WithOp(OpGet)
	}
	return Request{Op: OpGet, Method: http.MethodGet, Path: "/shipments/" + url.PathEscape(id)}, nil
}

// Search builds the request for one page of shipments.
func Search(params model.SearchParams) Request {
	return Request{Op: OpSearch, Method: http.MethodGet, Path: "/shipments/list", Query: params.Query()}
}

// Add builds the request saving a new shipment. The server assigns id and version.
func Add(s *model.Shipment) (Request, error) {
	if !s.IsNew() {
		return Request{}, errs.Caller(ErrAlreadyPersisted).WithOp(OpAdd)
	}
	body := AddBody{
		CourierName:    s.CourierName,
		TrackingNumber: s.TrackingNumber,
		FromLocationID: s.FromLocationInfo.LocationID,
		ToLocationID:   s.ToLocationInfo.LocationID,
	}
	if err := validate.Struct(body); err != nil {
		return Request{}, errs.Precondition(fmt.Errorf("%w: %v", ErrInvalidValue, err)).WithOp(OpAdd)
	}
	return Request{Op: OpAdd, Method: http.MethodPost, Path: "/shipments/", Body: body}, nil
}

// Remove builds the request deleting a shipment at its current version.
func Remove(s *model.Shipment) (Request, error) {
	if s.IsNew() {
		return Request{}, errs.Caller(ErrNotPersisted).WithOp(OpRemove)
	}
	return Request{
		Op:     OpRemove,
		Method: http.MethodDelete,
		Path:   "/shipments/" + url.PathEscape(s.ID) + "/" + strconv.FormatInt(s.Version, 10),
	}, nil
}
