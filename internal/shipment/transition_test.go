package shipment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/model"
)

var (
	t1 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 = time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
)

func createTestShipment(state model.ShipmentState, specimens, present int) *model.Shipment {
	return &model.Shipment{
		ID:                   "ship-1",
		Version:              5,
		CourierName:          "FedEx",
		TrackingNumber:       "TN-100",
		FromLocationInfo:     model.LocationInfo{CentreID: "c1", LocationID: "l1", Name: "Centre 1"},
		ToLocationInfo:       model.LocationInfo{CentreID: "c2", LocationID: "l2", Name: "Centre 2"},
		State:                state,
		SpecimenCount:        specimens,
		PresentSpecimenCount: present,
	}
}

func changeFor(tr Transition) StateChange {
	switch rules[tr].times {
	case 2:
		return Skip(tr, t1, t2)
	case 1:
		return At(tr, t1)
	}
	return To(tr)
}

func TestTransitionTable(t *testing.T) {
	allowed := map[Transition][]model.ShipmentState{
		TransitionCreated:        {model.ShipmentStatePacked, model.ShipmentStateSent, model.ShipmentStateLost},
		TransitionPacked:         {model.ShipmentStateCreated, model.ShipmentStateSent},
		TransitionSent:           {model.ShipmentStatePacked, model.ShipmentStateReceived, model.ShipmentStateLost},
		TransitionSkipToSent:     {model.ShipmentStateCreated},
		TransitionReceived:       {model.ShipmentStateSent, model.ShipmentStateUnpacked},
		TransitionUnpacked:       {model.ShipmentStateReceived, model.ShipmentStateCompleted},
		TransitionSkipToUnpacked: {model.ShipmentStateSent},
		TransitionCompleted:      {model.ShipmentStateUnpacked},
		TransitionLost:           {model.ShipmentStateSent},
	}

	for _, tr := range Transitions {
		for _, state := range model.ShipmentStates {
			// Counts chosen so no guard trips: specimens present, none tagged.
			present := 3
			if tr == TransitionCompleted {
				present = 0
			}
			s := createTestShipment(state, 3, present)

			_, err := BuildUpdate(s, changeFor(tr))
			want := false
			for _, from := range allowed[tr] {
				if from == state {
					want = true
				}
			}
			if want {
				assert.NoError(t, err, "%s from %s", tr, state)
			} else {
				require.Error(t, err, "%s from %s", tr, state)
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.True(t, errs.IsCode(err, errs.CodeCaller))
			}
			assert.Equal(t, want, tr.AllowedFrom(state))
		}
	}
}

func TestTransitionTargets(t *testing.T) {
	assert.Equal(t, model.ShipmentStateSent, TransitionSkipToSent.Target())
	assert.Equal(t, model.ShipmentStateUnpacked, TransitionSkipToUnpacked.Target())
	assert.Equal(t, model.ShipmentStateLost, TransitionLost.Target())
	assert.Equal(t, model.ShipmentState(""), Transition("bogus").Target())
	assert.True(t, TransitionSkipToSent.IsSkip())
	assert.False(t, TransitionSent.IsSkip())
}

func TestParseTransition(t *testing.T) {
	for _, tr := range Transitions {
		got, err := ParseTransition(string(tr))
		require.NoError(t, err)
		assert.Equal(t, tr, got)
	}
	_, err := ParseTransition("shipped")
	assert.ErrorIs(t, err, ErrUnknownTransition)
}

func TestStateRequestEncoding(t *testing.T) {
	tests := []struct {
		name   string
		state  model.ShipmentState
		change StateChange
		path   string
		body   StateBody
	}{
		{
			name:   "plain",
			state:  model.ShipmentStatePacked,
			change: At(TransitionSent, t1),
			path:   "/shipments/state/sent/ship-1",
			body:   StateBody{ExpectedVersion: 5, Datetime: &t1},
		},
		{
			name:   "created carries only the version",
			state:  model.ShipmentStatePacked,
			change: To(TransitionCreated),
			path:   "/shipments/state/created/ship-1",
			body:   StateBody{ExpectedVersion: 5},
		},
		{
			name:   "lost carries no times",
			state:  model.ShipmentStateSent,
			change: StateChange{Transition: TransitionLost, Time: &t1},
			path:   "/shipments/state/lost/ship-1",
			body:   StateBody{ExpectedVersion: 5},
		},
		{
			name:   "skip to sent",
			state:  model.ShipmentStateCreated,
			change: Skip(TransitionSkipToSent, t1, t2),
			path:   "/shipments/state/skip-to-sent/ship-1",
			body:   StateBody{ExpectedVersion: 5, TimePacked: &t1, TimeSent: &t2},
		},
		{
			name:   "skip to unpacked",
			state:  model.ShipmentStateSent,
			change: Skip(TransitionSkipToUnpacked, t1, t2),
			path:   "/shipments/state/skip-to-unpacked/ship-1",
			body:   StateBody{ExpectedVersion: 5, TimeReceived: &t1, TimeUnpacked: &t2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildUpdate(createTestShipment(tt.state, 2, 2), tt.change)
			require.NoError(t, err)
			assert.Equal(t, OpUpdate, req.Op)
			assert.Equal(t, "POST", req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, tt.body, req.Body)
		})
	}
}

func TestTransitionRequiresTimes(t *testing.T) {
	s := createTestShipment(model.ShipmentStateCreated, 2, 2)

	_, err := BuildUpdate(s, To(TransitionPacked))
	assert.ErrorIs(t, err, ErrMissingTime)

	_, err = BuildUpdate(s, At(TransitionSkipToSent, t1))
	assert.ErrorIs(t, err, ErrMissingTime)
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name   string
		s      *model.Shipment
		change StateChange
		want   error
	}{
		{"packed without specimens", createTestShipment(model.ShipmentStateCreated, 0, 0), At(TransitionPacked, t1), ErrNoSpecimens},
		{"skip to sent without specimens", createTestShipment(model.ShipmentStateCreated, 0, 0), Skip(TransitionSkipToSent, t1, t2), ErrNoSpecimens},
		{"completed with present specimens", createTestShipment(model.ShipmentStateUnpacked, 3, 1), At(TransitionCompleted, t1), ErrSpecimensPresent},
		{"back to received after tagging", createTestShipment(model.ShipmentStateUnpacked, 3, 2), At(TransitionReceived, t1), ErrSpecimensTagged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildUpdate(tt.s, tt.change)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errs.IsCode(err, errs.CodePrecondition))
			assert.True(t, errs.IsLocal(err))
		})
	}
}

func TestGuardsPass(t *testing.T) {
	_, err := BuildUpdate(createTestShipment(model.ShipmentStateUnpacked, 3, 0), At(TransitionCompleted, t1))
	assert.NoError(t, err)

	_, err = BuildUpdate(createTestShipment(model.ShipmentStateUnpacked, 3, 3), At(TransitionReceived, t1))
	assert.NoError(t, err)
}

func TestBackTo(t *testing.T) {
	s := createTestShipment(model.ShipmentStateReceived, 2, 2)
	s.TimePacked, s.TimeSent = &t1, &t2

	c, err := BackTo(s, model.ShipmentStateSent)
	require.NoError(t, err)
	assert.Equal(t, TransitionSent, c.Transition)
	assert.Equal(t, &t2, c.Time)

	s.State = model.ShipmentStatePacked
	c, err = BackTo(s, model.ShipmentStateCreated)
	require.NoError(t, err)
	assert.Equal(t, To(TransitionCreated), c)

	// No recorded time to reuse.
	s.State = model.ShipmentStateUnpacked
	_, err = BackTo(s, model.ShipmentStateReceived)
	assert.ErrorIs(t, err, ErrMissingTime)

	_, err = BackTo(s, model.ShipmentStateLost)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBackToReceivedBlockedByTagging(t *testing.T) {
	s := createTestShipment(model.ShipmentStateUnpacked, 4, 3)
	s.TimeReceived = &t1

	_, err := BackTo(s, model.ShipmentStateReceived)
	assert.True(t, errors.Is(err, ErrSpecimensTagged))
}
