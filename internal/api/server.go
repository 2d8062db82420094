package api

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/biotrack/internal/model"
	"github.com/erazemk/biotrack/internal/shipment"
)

// lifecycle orders the states that record a timestamp.
var lifecycle = []model.ShipmentState{
	model.ShipmentStatePacked,
	model.ShipmentStateSent,
	model.ShipmentStateReceived,
	model.ShipmentStateUnpacked,
	model.ShipmentStateCompleted,
}

type user struct {
	passwordHash []byte
	role         string
}

// Server is an in-memory shipment service speaking the shipment HTTP API.
// It is the reference the client is tested against and what shipmentsim serves.
type Server struct {
	mu        sync.Mutex
	shipments map[string]*model.Shipment
	// specimens by inventory id.
	specimens map[string]*model.Specimen
	// members holds the shipment specimens of each shipment, by id.
	members   map[string]map[string]*model.ShipmentSpecimen
	locations map[string]model.LocationInfo
	users     map[string]user

	logger *slog.Logger
	now    func() time.Time
}

// NewServer creates an empty server.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		shipments: make(map[string]*model.Shipment),
		specimens: make(map[string]*model.Specimen),
		members:   make(map[string]map[string]*model.ShipmentSpecimen),
		locations: make(map[string]model.LocationInfo),
		users:     make(map[string]user),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddLocation registers a centre location shipments may travel between.
func (s *Server) AddLocation(loc model.LocationInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.LocationID] = loc
}

// AddSpecimen registers a specimen stored at locationID.
func (s *Server) AddSpecimen(inventoryID, locationID string) (*model.Specimen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.locations[locationID]
	if !ok {
		return nil, notFound("location", locationID)
	}
	if _, ok := s.specimens[inventoryID]; ok {
		return nil, badRequest("specimen already exists: %s", inventoryID)
	}
	now := s.now()
	sp := &model.Specimen{ID: uuid.NewString(), InventoryID: inventoryID, LocationInfo: loc, TimeCreated: &now}
	s.specimens[inventoryID] = sp
	c := *sp
	return &c, nil
}

// AddUser registers a user who may log in with password.
func (s *Server) AddUser(username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user{passwordHash: hash, role: role}
	return nil
}

// authenticate returns the role of the user if the password matches.
func (s *Server) authenticate(username, password string) (string, bool) {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return "", false
	}
	return u.role, true
}

// Get returns a copy of one shipment.
func (s *Server) Get(id string) (*model.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[id]
	if !ok {
		return nil, notFound("shipment", id)
	}
	return sh.Clone(), nil
}

// Search returns one page of shipments.
func (s *Server) Search(q query) (model.PagedReply[model.Shipment], error) {
	s.mu.Lock()
	all := make([]model.Shipment, 0, len(s.shipments))
	for _, sh := range s.shipments {
		all = append(all, *sh.Clone())
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].TimeAdded.Equal(*all[j].TimeAdded) {
			return all[i].TimeAdded.Before(*all[j].TimeAdded)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, q, shipmentFields)
}

// Add saves a new shipment in the created state at version 0.
func (s *Server) Add(body shipment.AddBody) (*model.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.locations[body.FromLocationID]
	if !ok {
		return nil, notFound("location", body.FromLocationID)
	}
	to, ok := s.locations[body.ToLocationID]
	if !ok {
		return nil, notFound("location", body.ToLocationID)
	}
	if err := s.checkTrackingNumber("", body.TrackingNumber); err != nil {
		return nil, err
	}

	sh := model.NewShipment(body.CourierName, body.TrackingNumber, from, to)
	sh.ID = uuid.NewString()
	now := s.now()
	sh.TimeAdded = &now
	s.shipments[sh.ID] = sh
	s.members[sh.ID] = make(map[string]*model.ShipmentSpecimen)
	s.logger.Info("shipment added", "shipment", sh.ID, "tracking", sh.TrackingNumber)
	return sh.Clone(), nil
}

func (s *Server) checkTrackingNumber(id, trackingNumber string) error {
	for _, other := range s.shipments {
		if other.ID != id && other.TrackingNumber == trackingNumber {
			return badRequest("name already exists: tracking number %s", trackingNumber)
		}
	}
	return nil
}

// Update applies a field update to a created shipment at version.
func (s *Server) Update(id string, version int64, u shipment.Update) (*model.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.lookup(id, version)
	if err != nil {
		return nil, err
	}
	if !sh.IsCreated() {
		return nil, badRequest("shipment is not in created state: %s", sh.State)
	}

	switch v := u.(type) {
	case shipment.CourierName:
		sh.CourierName = string(v)
	case shipment.TrackingNumber:
		if err := s.checkTrackingNumber(sh.ID, string(v)); err != nil {
			return nil, err
		}
		sh.TrackingNumber = string(v)
	case shipment.FromLocation:
		loc, ok := s.locations[string(v)]
		if !ok {
			return nil, notFound("location", string(v))
		}
		sh.FromLocationInfo = loc
	case shipment.ToLocation:
		loc, ok := s.locations[string(v)]
		if !ok {
			return nil, notFound("location", string(v))
		}
		sh.ToLocationInfo = loc
	default:
		return nil, badRequest("unsupported update: %s", u.Attribute())
	}
	s.touch(sh)
	return sh.Clone(), nil
}

// ChangeState applies a state transition. The same rules the client checks
// before sending are enforced here against the server's own counts.
func (s *Server) ChangeState(id string, c shipment.StateChange, version int64) (*model.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.lookup(id, version)
	if err != nil {
		return nil, err
	}
	if err := c.Check(sh); err != nil {
		return nil, err
	}
	if sh.IsCompleted() && c.Transition == shipment.TransitionUnpacked {
		if err := s.checkReclaimable(sh); err != nil {
			return nil, err
		}
	}

	target := c.Transition.Target()
	switch c.Transition {
	case shipment.TransitionLost:
	case shipment.TransitionCreated:
		clearTimesAfter(sh, -1)
	case shipment.TransitionSkipToSent:
		clearTimesAfter(sh, -1)
		sh.TimePacked = cloneTime(c.Time)
		sh.TimeSent = cloneTime(c.SkipTime)
	case shipment.TransitionSkipToUnpacked:
		clearTimesAfter(sh, stage(model.ShipmentStateSent))
		sh.TimeReceived = cloneTime(c.Time)
		sh.TimeUnpacked = cloneTime(c.SkipTime)
	default:
		i := stage(target)
		clearTimesAfter(sh, i)
		setTime(sh, target, c.Time)
	}
	sh.State = target
	s.touch(sh)
	s.logger.Info("shipment state changed", "shipment", sh.ID, "transition", c.Transition, "state", sh.State)
	return sh.Clone(), nil
}

// Remove deletes a created shipment that has no specimens.
func (s *Server) Remove(id string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, err := s.lookup(id, version)
	if err != nil {
		return err
	}
	if !sh.IsCreated() {
		return badRequest("shipment is not in created state: %s", sh.State)
	}
	if len(s.members[id]) > 0 {
		return badRequest("shipment has specimens")
	}
	delete(s.shipments, id)
	delete(s.members, id)
	s.logger.Info("shipment removed", "shipment", id)
	return nil
}

func (s *Server) lookup(id string, version int64) (*model.Shipment, error) {
	sh, ok := s.shipments[id]
	if !ok {
		return nil, notFound("shipment", id)
	}
	if sh.Version != version {
		return nil, errVersionMismatch
	}
	return sh, nil
}

// touch records a successful mutation.
func (s *Server) touch(sh *model.Shipment) {
	members := s.members[sh.ID]
	sh.SpecimenCount = len(members)
	sh.PresentSpecimenCount = 0
	containers := make(map[string]struct{})
	for _, ss := range members {
		if ss.State == model.ShipmentItemStatePresent {
			sh.PresentSpecimenCount++
		}
		if ss.ShipmentContainerID != "" {
			containers[ss.ShipmentContainerID] = struct{}{}
		}
	}
	sh.ContainerCount = len(containers)
	sh.Version++
	now := s.now()
	sh.TimeModified = &now
}

func stage(state model.ShipmentState) int {
	for i, st := range lifecycle {
		if st == state {
			return i
		}
	}
	return -1
}

// clearTimesAfter unsets the timestamps of every lifecycle stage after i.
func clearTimesAfter(sh *model.Shipment, i int) {
	for _, st := range lifecycle[i+1:] {
		setTime(sh, st, nil)
	}
}

func setTime(sh *model.Shipment, state model.ShipmentState, t *time.Time) {
	t = cloneTime(t)
	switch state {
	case model.ShipmentStatePacked:
		sh.TimePacked = t
	case model.ShipmentStateSent:
		sh.TimeSent = t
	case model.ShipmentStateReceived:
		sh.TimeReceived = t
	case model.ShipmentStateUnpacked:
		sh.TimeUnpacked = t
	case model.ShipmentStateCompleted:
		sh.TimeCompleted = t
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
