package shipment

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/model"
)

// Attribute names a mutable shipment attribute.
type Attribute string

// Attributes.
const (
	AttributeCourierName    Attribute = "courierName"
	AttributeTrackingNumber Attribute = "trackingNumber"
	AttributeFromLocation   Attribute = "fromLocation"
	AttributeToLocation     Attribute = "toLocation"
	AttributeState          Attribute = "state"
)

// Update is a typed change to one shipment attribute. The set of implementations
// is closed: CourierName, TrackingNumber, FromLocation, ToLocation and StateChange.
type Update interface {
	Attribute() Attribute
	request(s *model.Shipment) (Request, error)
}

// CourierName replaces the courier name.
type CourierName string

// TrackingNumber replaces the tracking number.
type TrackingNumber string

// FromLocation moves the origin to the location with this id.
type FromLocation string

// ToLocation moves the destination to the location with this id.
type ToLocation string

func (CourierName) Attribute() Attribute    { return AttributeCourierName }
func (TrackingNumber) Attribute() Attribute { return AttributeTrackingNumber }
func (FromLocation) Attribute() Attribute   { return AttributeFromLocation }
func (ToLocation) Attribute() Attribute     { return AttributeToLocation }

// CourierBody is the wire body of a courier update.
type CourierBody struct {
	ExpectedVersion int64  `json:"expectedVersion" validate:"gte=0"`
	CourierName     string `json:"courierName" validate:"required"`
}

// TrackingNumberBody is the wire body of a tracking number update.
type TrackingNumberBody struct {
	ExpectedVersion int64  `json:"expectedVersion" validate:"gte=0"`
	TrackingNumber  string `json:"trackingNumber" validate:"required"`
}

// LocationBody is the wire body of a from/to location update.
type LocationBody struct {
	ExpectedVersion int64  `json:"expectedVersion" validate:"gte=0"`
	LocationID      string `json:"locationId" validate:"required"`
}

func (v CourierName) request(s *model.Shipment) (Request, error) {
	return fieldRequest(s, "courier", CourierBody{ExpectedVersion: s.Version, CourierName: string(v)})
}

func (v TrackingNumber) request(s *model.Shipment) (Request, error) {
	return fieldRequest(s, "trackingnumber", TrackingNumberBody{ExpectedVersion: s.Version, TrackingNumber: string(v)})
}

func (v FromLocation) request(s *model.Shipment) (Request, error) {
	return fieldRequest(s, "fromlocation", LocationBody{ExpectedVersion: s.Version, LocationID: string(v)})
}

func (v ToLocation) request(s *model.Shipment) (Request, error) {
	return fieldRequest(s, "tolocation", LocationBody{ExpectedVersion: s.Version, LocationID: string(v)})
}

func fieldRequest(s *model.Shipment, segment string, body any) (Request, error) {
	if err := validate.Struct(body); err != nil {
		return Request{}, errs.Precondition(fmt.Errorf("%w: %v", ErrInvalidValue, err))
	}
	return Request{
		Op:     OpUpdate,
		Method: http.MethodPost,
		Path:   "/shipments/" + segment + "/" + url.PathEscape(s.ID),
		Body:   body,
	}, nil
}

// BuildUpdate validates u against the shipment the caller holds and encodes it.
// The request always carries the shipment's version as expectedVersion.
func BuildUpdate(s *model.Shipment, u Update) (Request, error) {
	if u == nil {
		return Request{}, errs.Caller(fmt.Errorf("%w: nil update", ErrInvalidValue)).WithOp(OpUpdate)
	}
	if s.IsNew() {
		return Request{}, errs.Caller(ErrNotPersisted).WithOp(OpUpdate)
	}
	req, err := u.request(s)
	if err != nil {
		return Request{}, withOp(err, OpUpdate)
	}
	return req, nil
}

// NewUpdate builds an Update from an attribute name and a loosely typed value,
// for callers that receive attribute names as strings. Names outside the five
// recognized attributes fail with ErrInvalidAttribute.
func NewUpdate(attribute string, value any) (Update, error) {
	switch Attribute(attribute) {
	case AttributeCourierName:
		if v, ok := value.(string); ok {
			return CourierName(v), nil
		}
	case AttributeTrackingNumber:
		if v, ok := value.(string); ok {
			return TrackingNumber(v), nil
		}
	case AttributeFromLocation:
		if id, ok := locationID(value); ok {
			return FromLocation(id), nil
		}
	case AttributeToLocation:
		if id, ok := locationID(value); ok {
			return ToLocation(id), nil
		}
	case AttributeState:
		switch v := value.(type) {
		case StateChange:
			return v, nil
		case *StateChange:
			if v != nil {
				return *v, nil
			}
		}
	default:
		return nil, errs.Caller(fmt.Errorf("%w: %s", ErrInvalidAttribute, attribute)).WithOp(OpUpdate)
	}
	return nil, errs.Caller(fmt.Errorf("%w: %T for %s", ErrInvalidValue, value, attribute)).WithOp(OpUpdate)
}

func locationID(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case model.LocationInfo:
		return v.LocationID, true
	case *model.LocationInfo:
		if v != nil {
			return v.LocationID, true
		}
	}
	return "", false
}

func withOp(err error, op string) error {
	if e, ok := errs.As(err); ok && e.Op == "" {
		return e.WithOp(op)
	}
	return err
}
