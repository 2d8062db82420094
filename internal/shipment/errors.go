package shipment

import "errors"

// Caller errors.
var (
	ErrInvalidAttribute  = errors.New("invalid attribute name")
	ErrInvalidValue      = errors.New("invalid attribute value")
	ErrUnknownTransition = errors.New("unknown transition")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingTime       = errors.New("transition requires a time")
	ErrNotPersisted      = errors.New("shipment has not been saved")
	ErrAlreadyPersisted  = errors.New("shipment has already been saved")
	ErrNotCreated        = errors.New("shipment is not in created state")
	ErrNotUnpacked       = errors.New("shipment is not in unpacked state")
	ErrInvalidTag        = errors.New("invalid specimen tag")
	ErrInvalidRetag      = errors.New("invalid specimen tag change")
	ErrNoInventoryIDs    = errors.New("no specimen inventory ids given")
	ErrWrongShipment     = errors.New("specimen does not belong to shipment")
)

// Guard failures.
var (
	ErrNoSpecimens      = errors.New("shipment has no specimens")
	ErrSpecimensPresent = errors.New("shipment still has present specimens")
	ErrSpecimensTagged  = errors.New("shipment has specimens tagged away from present")
)
