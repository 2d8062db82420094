package model

import "time"

// ShipmentState is the lifecycle state of a shipment.
type ShipmentState string

// Shipment states.
const (
	ShipmentStateCreated   ShipmentState = "created"
	ShipmentStatePacked    ShipmentState = "packed"
	ShipmentStateSent      ShipmentState = "sent"
	ShipmentStateReceived  ShipmentState = "received"
	ShipmentStateUnpacked  ShipmentState = "unpacked"
	ShipmentStateCompleted ShipmentState = "completed"
	ShipmentStateLost      ShipmentState = "lost"
)

// ShipmentStates lists every state in lifecycle order.
var ShipmentStates = []ShipmentState{
	ShipmentStateCreated,
	ShipmentStatePacked,
	ShipmentStateSent,
	ShipmentStateReceived,
	ShipmentStateUnpacked,
	ShipmentStateCompleted,
	ShipmentStateLost,
}

// Valid reports whether s is a known shipment state.
func (s ShipmentState) Valid() bool {
	for _, known := range ShipmentStates {
		if s == known {
			return true
		}
	}
	return false
}

// LocationInfo references a location at a centre, with its denormalized display name.
type LocationInfo struct {
	CentreID   string `json:"centreId"`
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
}

// Shipment is one physical transfer of specimens between two centre locations.
// An empty ID means the shipment has not been saved yet.
type Shipment struct {
	ID                   string        `json:"id,omitempty"`
	Version              int64         `json:"version"`
	TimeAdded            *time.Time    `json:"timeAdded,omitempty"`
	TimeModified         *time.Time    `json:"timeModified,omitempty"`
	CourierName          string        `json:"courierName"`
	TrackingNumber       string        `json:"trackingNumber"`
	FromLocationInfo     LocationInfo  `json:"fromLocationInfo"`
	ToLocationInfo       LocationInfo  `json:"toLocationInfo"`
	State                ShipmentState `json:"state"`
	TimePacked           *time.Time    `json:"timePacked,omitempty"`
	TimeSent             *time.Time    `json:"timeSent,omitempty"`
	TimeReceived         *time.Time    `json:"timeReceived,omitempty"`
	TimeUnpacked         *time.Time    `json:"timeUnpacked,omitempty"`
	TimeCompleted        *time.Time    `json:"timeCompleted,omitempty"`
	SpecimenCount        int           `json:"specimenCount"`
	PresentSpecimenCount int           `json:"presentSpecimenCount"`
	ContainerCount       int           `json:"containerCount"`
}

// NewShipment returns an unsaved shipment in the created state.
func NewShipment(courierName, trackingNumber string, from, to LocationInfo) *Shipment {
	return &Shipment{
		CourierName:      courierName,
		TrackingNumber:   trackingNumber,
		FromLocationInfo: from,
		ToLocationInfo:   to,
		State:            ShipmentStateCreated,
	}
}

// IsNew reports whether the server has not assigned an id yet.
func (s *Shipment) IsNew() bool { return s.ID == "" }

func (s *Shipment) IsCreated() bool   { return s.State == ShipmentStateCreated }
func (s *Shipment) IsPacked() bool    { return s.State == ShipmentStatePacked }
func (s *Shipment) IsSent() bool      { return s.State == ShipmentStateSent }
func (s *Shipment) IsReceived() bool  { return s.State == ShipmentStateReceived }
func (s *Shipment) IsUnpacked() bool  { return s.State == ShipmentStateUnpacked }
func (s *Shipment) IsCompleted() bool { return s.State == ShipmentStateCompleted }
func (s *Shipment) IsLost() bool      { return s.State == ShipmentStateLost }

// HasSpecimens reports whether any specimen is associated with the shipment.
func (s *Shipment) HasSpecimens() bool { return s.SpecimenCount > 0 }

// HasPresentSpecimens reports whether any specimen is still tagged present.
func (s *Shipment) HasPresentSpecimens() bool { return s.PresentSpecimenCount > 0 }

// NonPresentSpecimenCount is the number of specimens tagged away from present
// (received, missing or extra).
func (s *Shipment) NonPresentSpecimenCount() int {
	return s.SpecimenCount - s.PresentSpecimenCount
}

// CanAddSpecimens reports whether the specimen list may still change.
func (s *Shipment) CanAddSpecimens() bool { return s.IsCreated() }

// TimeFor returns the timestamp recorded when the shipment entered state,
// or nil when none has been recorded.
func (s *Shipment) TimeFor(state ShipmentState) *time.Time {
	switch state {
	case ShipmentStatePacked:
		return s.TimePacked
	case ShipmentStateSent:
		return s.TimeSent
	case ShipmentStateReceived:
		return s.TimeReceived
	case ShipmentStateUnpacked:
		return s.TimeUnpacked
	case ShipmentStateCompleted:
		return s.TimeCompleted
	}
	return nil
}

// Clone returns a deep copy so callers can hold a shipment without sharing timestamps.
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	c := *s
	c.TimeAdded = cloneTime(s.TimeAdded)
	c.TimeModified = cloneTime(s.TimeModified)
	c.TimePacked = cloneTime(s.TimePacked)
	c.TimeSent = cloneTime(s.TimeSent)
	c.TimeReceived = cloneTime(s.TimeReceived)
	c.TimeUnpacked = cloneTime(s.TimeUnpacked)
	c.TimeCompleted = cloneTime(s.TimeCompleted)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
