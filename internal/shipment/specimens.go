package shipment

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/model"
)

// Unassociated stands for a specimen that is not part of the shipment's manifest.
const Unassociated model.ShipmentItemState = ""

// retags lists the tag changes a specimen may go through while its shipment is unpacked.
var retags = map[model.ShipmentItemState][]model.ShipmentItemState{
	model.ShipmentItemStatePresent:  {model.ShipmentItemStateReceived, model.ShipmentItemStateMissing},
	model.ShipmentItemStateReceived: {model.ShipmentItemStatePresent},
	model.ShipmentItemStateMissing:  {model.ShipmentItemStatePresent},
	Unassociated:                    {model.ShipmentItemStateExtra},
}

// CanRetag reports whether a specimen tagged from may be tagged to.
func CanRetag(from, to model.ShipmentItemState) error {
	for _, allowed := range retags[from] {
		if allowed == to {
			return nil
		}
	}
	if from == Unassociated {
		from = "unassociated"
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidRetag, from, to)
}

// AddSpecimensBody is the wire body adding specimens to a shipment.
type AddSpecimensBody struct {
	SpecimenInventoryIDs []string `json:"specimenInventoryIds" validate:"required,min=1,dive,required"`
	ShipmentContainerID  string   `json:"shipmentContainerId,omitempty"`
}

// TagSpecimensBody is the wire body tagging specimens.
type TagSpecimensBody struct {
	SpecimenInventoryIDs []string `json:"specimenInventoryIds" validate:"required,min=1,dive,required"`
}

// CanAddSpecimen builds the request asking whether a specimen may be shipped.
func CanAddSpecimen(inventoryID string) (Request, error) {
	if inventoryID == "" {
		return Request{}, errs.Caller(ErrNoInventoryIDs).WithOp(OpCanAddSpecimen)
	}
	return Request{
		Op:     OpCanAddSpecimen,
		Method: http.MethodGet,
		Path:   "/shipments/specimens/canadd/" + url.PathEscape(inventoryID),
	}, nil
}

// AddSpecimens builds the request adding specimens to a created shipment.
func AddSpecimens(s *model.Shipment, inventoryIDs []string, containerID string) (Request, error) {
	if err := requireCreated(s); err != nil {
		return Request{}, withOp(err, OpAddSpecimens)
	}
	body := AddSpecimensBody{SpecimenInventoryIDs: inventoryIDs, ShipmentContainerID: containerID}
	if err := validate.Struct(body); err != nil {
		return Request{}, errs.Caller(fmt.Errorf("%w: %v", ErrNoInventoryIDs, err)).WithOp(OpAddSpecimens)
	}
	return Request{
		Op:     OpAddSpecimens,
		Method: http.MethodPost,
		Path:   "/shipments/specimens/" + url.PathEscape(s.ID),
		Body:   body,
	}, nil
}

// TagSpecimens builds the batch request tagging specimens of an unpacked shipment.
// Tagging present, received or missing applies to specimens on the manifest;
// tagging extra adds specimens found that were not on it.
func TagSpecimens(s *model.Shipment, tag model.ShipmentItemState, inventoryIDs []string) (Request, error) {
	if !tag.Valid() {
		return Request{}, errs.Caller(fmt.Errorf("%w: %q", ErrInvalidTag, tag)).WithOp(OpTagSpecimens)
	}
	if s.IsNew() {
		return Request{}, errs.Caller(ErrNotPersisted).WithOp(OpTagSpecimens)
	}
	if !s.IsUnpacked() {
		return Request{}, errs.Caller(fmt.Errorf("%w: %s", ErrNotUnpacked, s.State)).WithOp(OpTagSpecimens)
	}
	body := TagSpecimensBody{SpecimenInventoryIDs: inventoryIDs}
	if err := validate.Struct(body); err != nil {
		return Request{}, errs.Caller(fmt.Errorf("%w: %v", ErrNoInventoryIDs, err)).WithOp(OpTagSpecimens)
	}
	return Request{
		Op:     OpTagSpecimens,
		Method: http.MethodPost,
		Path:   "/shipments/specimens/" + string(tag) + "/" + url.PathEscape(s.ID),
		Body:   body,
	}, nil
}

// ListSpecimens builds the request for one page of a shipment's specimens.
func ListSpecimens(shipmentID string, params model.SearchParams) (Request, error) {
	if shipmentID == "" {
		return Request{}, errs.Caller(ErrNotPersisted).WithOp(OpListSpecimens)
	}
	return Request{
		Op:     OpListSpecimens,
		Method: http.MethodGet,
		Path:   "/shipments/specimens/" + url.PathEscape(shipmentID),
		Query:  params.Query(),
	}, nil
}

// RemoveSpecimen builds the request removing a specimen from a created shipment.
func RemoveSpecimen(s *model.Shipment, ss *model.ShipmentSpecimen) (Request, error) {
	if err := requireCreated(s); err != nil {
		return Request{}, withOp(err, OpRemoveSpecimen)
	}
	if ss.ShipmentID != s.ID {
		return Request{}, errs.Caller(fmt.Errorf("%w: %s", ErrWrongShipment, ss.ID)).WithOp(OpRemoveSpecimen)
	}
	return Request{
		Op:     OpRemoveSpecimen,
		Method: http.MethodDelete,
		Path: "/shipments/specimens/" + url.PathEscape(s.ID) + "/" + url.PathEscape(ss.ID) +
			"/" + strconv.FormatInt(ss.Version, 10),
	}, nil
}

func requireCreated(s *model.Shipment) error {
	if s.IsNew() {
		return errs.Caller(ErrNotPersisted)
	}
	if !s.CanAddSpecimens() {
		return errs.Caller(fmt.Errorf("%w: %s", ErrNotCreated, s.State))
	}
	return nil
}
