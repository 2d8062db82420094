package api

import (
	"github.com/google/uuid"

	"github.com/erazemk/biotrack/internal/model"
	"github.com/erazemk/biotrack/internal/shipment"
)

// CanAddSpecimen returns the specimen if it exists and is not part of an
// active shipment.
func (s *Server) CanAddSpecimen(inventoryID string) (*model.Specimen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, err := s.available(inventoryID)
	if err != nil {
		return nil, err
	}
	c := *sp
	return &c, nil
}

func (s *Server) available(inventoryID string) (*model.Specimen, error) {
	sp, ok := s.specimens[inventoryID]
	if !ok {
		return nil, notFound("specimen", inventoryID)
	}
	if shipmentID, ok := s.activeShipmentOf(inventoryID); ok {
		return nil, badRequest("specimen %s is already in active shipment %s", inventoryID, shipmentID)
	}
	return sp, nil
}

// activeShipmentOf finds the non-completed shipment holding the specimen.
func (s *Server) activeShipmentOf(inventoryID string) (string, bool) {
	for shipmentID, members := range s.members {
		if s.shipments[shipmentID].IsCompleted() {
			continue
		}
		for _, ss := range members {
			if ss.Specimen.InventoryID == inventoryID {
				return shipmentID, true
			}
		}
	}
	return "", false
}

// checkReclaimable fails if a specimen of the completed shipment sh has since
// joined another active shipment.
func (s *Server) checkReclaimable(sh *model.Shipment) error {
	for _, ss := range s.members[sh.ID] {
		if other, ok := s.activeShipmentOf(ss.Specimen.InventoryID); ok && other != sh.ID {
			return badRequest("specimen %s is already in active shipment %s", ss.Specimen.InventoryID, other)
		}
	}
	return nil
}

// AddSpecimens adds specimens stored at the shipment's origin. Either all of
// them are added or none.
func (s *Server) AddSpecimens(id string, body shipment.AddSpecimensBody) (*model.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shipments[id]
	if !ok {
		return nil, notFound("shipment", id)
	}
	if !sh.IsCreated() {
		return nil, badRequest("shipment is not in created state: %s", sh.State)
	}

	seen := make(map[string]bool, len(body.SpecimenInventoryIDs))
	specimens := make([]*model.Specimen, 0, len(body.SpecimenInventoryIDs))
	for _, inv := range body.SpecimenInventoryIDs {
		if seen[inv] {
			return nil, badRequest("duplicate specimen: %s", inv)
		}
		seen[inv] = true
		sp, err := s.available(inv)
		if err != nil {
			return nil, err
		}
		if sp.LocationInfo.LocationID != sh.FromLocationInfo.LocationID {
			return nil, badRequest("specimen %s is not at location %s", inv, sh.FromLocationInfo.Name)
		}
		specimens = append(specimens, sp)
	}

	for _, sp := range specimens {
		s.associate(sh, sp, model.ShipmentItemStatePresent, body.ShipmentContainerID)
	}
	s.touch(sh)
	return sh.Clone(), nil
}

func (s *Server) associate(sh *model.Shipment, sp *model.Specimen, state model.ShipmentItemState, containerID string) {
	ss := &model.ShipmentSpecimen{
		ID:                  uuid.NewString(),
		ShipmentID:          sh.ID,
		ShipmentContainerID: containerID,
		State:               state,
		Specimen:            *sp,
	}
	s.members[sh.ID][ss.ID] = ss
}

func (s *Server) memberByInventoryID(shipmentID, inventoryID string) *model.ShipmentSpecimen {
	for _, ss := range s.members[shipmentID] {
		if ss.Specimen.InventoryID == inventoryID {
			return ss
		}
	}
	return nil
}

// TagSpecimens tags specimens of an unpacked shipment. Tagging extra adds
// specimens that were not on the manifest. Either every tag applies or none.
func (s *Server) TagSpecimens(id string, tag model.ShipmentItemState, body shipment.TagSpecimensBody) (*model.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shipments[id]
	if !ok {
		return nil, notFound("shipment", id)
	}
	if !sh.IsUnpacked() {
		return nil, badRequest("shipment is not in unpacked state: %s", sh.State)
	}

	seen := make(map[string]bool, len(body.SpecimenInventoryIDs))
	var extras []*model.Specimen
	var members []*model.ShipmentSpecimen
	for _, inv := range body.SpecimenInventoryIDs {
		if seen[inv] {
			return nil, badRequest("duplicate specimen: %s", inv)
		}
		seen[inv] = true
		ss := s.memberByInventoryID(id, inv)
		from := shipment.Unassociated
		if ss != nil {
			from = ss.State
		}
		if err := shipment.CanRetag(from, tag); err != nil {
			return nil, badRequest("specimen %s: %v", inv, err)
		}
		if ss != nil {
			members = append(members, ss)
			continue
		}
		sp, err := s.available(inv)
		if err != nil {
			return nil, err
		}
		extras = append(extras, sp)
	}

	for _, ss := range members {
		ss.State = tag
		ss.Version++
	}
	for _, sp := range extras {
		s.associate(sh, sp, model.ShipmentItemStateExtra, "")
	}
	s.touch(sh)
	return sh.Clone(), nil
}

// ListSpecimens returns one page of a shipment's specimens.
func (s *Server) ListSpecimens(id string, q query) (model.PagedReply[model.ShipmentSpecimen], error) {
	s.mu.Lock()
	members, ok := s.members[id]
	if !ok {
		s.mu.Unlock()
		return model.PagedReply[model.ShipmentSpecimen]{}, notFound("shipment", id)
	}
	all := make([]model.ShipmentSpecimen, 0, len(members))
	for _, ss := range members {
		all = append(all, *ss)
	}
	s.mu.Unlock()

	sortBy(all, func(ss model.ShipmentSpecimen) string { return ss.Specimen.InventoryID })
	return paginate(all, q, specimenFields)
}

// RemoveSpecimen drops a specimen from a created shipment.
func (s *Server) RemoveSpecimen(shipmentID, id string, version int64) (*model.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shipments[shipmentID]
	if !ok {
		return nil, notFound("shipment", shipmentID)
	}
	if !sh.IsCreated() {
		return nil, badRequest("shipment is not in created state: %s", sh.State)
	}
	ss, ok := s.members[shipmentID][id]
	if !ok {
		return nil, notFound("shipment specimen", id)
	}
	if ss.Version != version {
		return nil, errVersionMismatch
	}
	delete(s.members[shipmentID], id)
	s.touch(sh)
	return sh.Clone(), nil
}
