package model

import "time"

// ShipmentItemState is the tag a specimen carries within a shipment.
type ShipmentItemState string

// Shipment item states. Present is the initial tag (as packed).
const (
	ShipmentItemStatePresent  ShipmentItemState = "present"
	ShipmentItemStateReceived ShipmentItemState = "received"
	ShipmentItemStateMissing  ShipmentItemState = "missing"
	ShipmentItemStateExtra    ShipmentItemState = "extra"
)

// Valid reports whether s is a known item state.
func (s ShipmentItemState) Valid() bool {
	switch s {
	case ShipmentItemStatePresent, ShipmentItemStateReceived, ShipmentItemStateMissing, ShipmentItemStateExtra:
		return true
	}
	return false
}

// Specimen is a physical sample, identified by its inventory id.
type Specimen struct {
	ID           string       `json:"id"`
	InventoryID  string       `json:"inventoryId"`
	LocationInfo LocationInfo `json:"locationInfo"`
	TimeCreated  *time.Time   `json:"timeCreated,omitempty"`
}

// ShipmentSpecimen associates a specimen with a shipment and carries its tag.
type ShipmentSpecimen struct {
	ID                  string            `json:"id"`
	Version             int64             `json:"version"`
	ShipmentID          string            `json:"shipmentId"`
	ShipmentContainerID string            `json:"shipmentContainerId,omitempty"`
	State               ShipmentItemState `json:"state"`
	Specimen            Specimen          `json:"specimen"`
}
