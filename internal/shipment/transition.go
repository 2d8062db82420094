package shipment

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/model"
)

// Transition names a lifecycle edge. Values are the wire identifiers.
type Transition string

// Transitions.
const (
	TransitionCreated        Transition = "created"
	TransitionPacked         Transition = "packed"
	TransitionSent           Transition = "sent"
	TransitionSkipToSent     Transition = "skip-to-sent"
	TransitionReceived       Transition = "received"
	TransitionUnpacked       Transition = "unpacked"
	TransitionSkipToUnpacked Transition = "skip-to-unpacked"
	TransitionCompleted      Transition = "completed"
	TransitionLost           Transition = "lost"
)

// Transitions lists every transition.
var Transitions = []Transition{
	TransitionCreated,
	TransitionPacked,
	TransitionSent,
	TransitionSkipToSent,
	TransitionReceived,
	TransitionUnpacked,
	TransitionSkipToUnpacked,
	TransitionCompleted,
	TransitionLost,
}

type rule struct {
	target model.ShipmentState
	from   []model.ShipmentState
	// times is the number of timestamps the transition requires: 0, 1 (Time) or 2 (Time and SkipTime).
	times int
}

// Forward edges come first in each from list; the rest are the "back to" regressions.
var rules = map[Transition]rule{
	TransitionCreated: {
		target: model.ShipmentStateCreated,
		from:   []model.ShipmentState{model.ShipmentStatePacked, model.ShipmentStateSent, model.ShipmentStateLost},
	},
	TransitionPacked: {
		target: model.ShipmentStatePacked,
		from:   []model.ShipmentState{model.ShipmentStateCreated, model.ShipmentStateSent},
		times:  1,
	},
	TransitionSent: {
		target: model.ShipmentStateSent,
		from:   []model.ShipmentState{model.ShipmentStatePacked, model.ShipmentStateReceived, model.ShipmentStateLost},
		times:  1,
	},
	TransitionSkipToSent: {
		target: model.ShipmentStateSent,
		from:   []model.ShipmentState{model.ShipmentStateCreated},
		times:  2,
	},
	TransitionReceived: {
		target: model.ShipmentStateReceived,
		from:   []model.ShipmentState{model.ShipmentStateSent, model.ShipmentStateUnpacked},
		times:  1,
	},
	TransitionUnpacked: {
		target: model.ShipmentStateUnpacked,
		from:   []model.ShipmentState{model.ShipmentStateReceived, model.ShipmentStateCompleted},
		times:  1,
	},
	TransitionSkipToUnpacked: {
		target: model.ShipmentStateUnpacked,
		from:   []model.ShipmentState{model.ShipmentStateSent},
		times:  2,
	},
	TransitionCompleted: {
		target: model.ShipmentStateCompleted,
		from:   []model.ShipmentState{model.ShipmentStateUnpacked},
		times:  1,
	},
	TransitionLost: {
		target: model.ShipmentStateLost,
		from:   []model.ShipmentState{model.ShipmentStateSent},
	},
}

// ParseTransition maps a wire identifier to a Transition.
func ParseTransition(s string) (Transition, error) {
	t := Transition(s)
	if _, ok := rules[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransition, s)
	}
	return t, nil
}

// Target is the state the transition enters. Unknown transitions return "".
func (t Transition) Target() model.ShipmentState {
	return rules[t].target
}

// IsSkip reports whether t collapses two lifecycle steps into one request.
func (t Transition) IsSkip() bool {
	return t == TransitionSkipToSent || t == TransitionSkipToUnpacked
}

// AllowedFrom reports whether t may be applied to a shipment in state.
func (t Transition) AllowedFrom(state model.ShipmentState) bool {
	r, ok := rules[t]
	return ok && slices.Contains(r.from, state)
}

// StateChange is the value of a state update: a transition plus the times it
// requires. For skip transitions Time is the first step's time and SkipTime
// the second's.
type StateChange struct {
	Transition Transition
	Time       *time.Time
	SkipTime   *time.Time
}

// At returns a change applying t at time at.
func At(t Transition, at time.Time) StateChange {
	return StateChange{Transition: t, Time: &at}
}

// Skip returns a skip change: first is the time of the skipped step, second the time of the target step.
func Skip(t Transition, first, second time.Time) StateChange {
	return StateChange{Transition: t, Time: &first, SkipTime: &second}
}

// To returns a change that needs no time (created, lost).
func To(t Transition) StateChange {
	return StateChange{Transition: t}
}

// Attribute implements Update.
func (StateChange) Attribute() Attribute { return AttributeState }

// StateBody is the wire body of a state transition. Only the fields relevant to
// the transition are set.
type StateBody struct {
	ExpectedVersion int64      `json:"expectedVersion"`
	Datetime        *time.Time `json:"datetime,omitempty"`
	TimePacked      *time.Time `json:"timePacked,omitempty"`
	TimeSent        *time.Time `json:"timeSent,omitempty"`
	TimeReceived    *time.Time `json:"timeReceived,omitempty"`
	TimeUnpacked    *time.Time `json:"timeUnpacked,omitempty"`
}

// Check validates c against s without encoding it. Illegal edges and missing
// times are caller errors; count guards are precondition failures.
func (c StateChange) Check(s *model.Shipment) error {
	r, ok := rules[c.Transition]
	if !ok {
		return errs.Caller(fmt.Errorf("%w: %q", ErrUnknownTransition, c.Transition))
	}
	if !slices.Contains(r.from, s.State) {
		return errs.Caller(fmt.Errorf("%w: %s from %s", ErrInvalidTransition, c.Transition, s.State))
	}
	if (r.times >= 1 && c.Time == nil) || (r.times == 2 && c.SkipTime == nil) {
		return errs.Caller(fmt.Errorf("%w: %s", ErrMissingTime, c.Transition))
	}

	switch c.Transition {
	case TransitionPacked, TransitionSkipToSent:
		if !s.HasSpecimens() {
			return errs.Precondition(ErrNoSpecimens)
		}
	case TransitionCompleted:
		if s.HasPresentSpecimens() {
			return errs.Precondition(fmt.Errorf("%w: %d", ErrSpecimensPresent, s.PresentSpecimenCount))
		}
	case TransitionReceived:
		if s.IsUnpacked() && s.PresentSpecimenCount != s.SpecimenCount {
			return errs.Precondition(fmt.Errorf("%w: %d of %d", ErrSpecimensTagged, s.NonPresentSpecimenCount(), s.SpecimenCount))
		}
	}
	return nil
}

// Body encodes c for a shipment at version.
func (c StateChange) Body(version int64) StateBody {
	body := StateBody{ExpectedVersion: version}
	switch c.Transition {
	case TransitionCreated, TransitionLost:
	case TransitionSkipToSent:
		body.TimePacked = c.Time
		body.TimeSent = c.SkipTime
	case TransitionSkipToUnpacked:
		body.TimeReceived = c.Time
		body.TimeUnpacked = c.SkipTime
	default:
		body.Datetime = c.Time
	}
	return body
}

func (c StateChange) request(s *model.Shipment) (Request, error) {
	if err := c.Check(s); err != nil {
		return Request{}, err
	}
	return Request{
		Op:     OpUpdate,
		Method: http.MethodPost,
		Path:   "/shipments/state/" + string(c.Transition) + "/" + url.PathEscape(s.ID),
		Body:   c.Body(s.Version),
	}, nil
}

// BackTo builds the change regressing s to state, reusing the time already
// recorded for that state.
func BackTo(s *model.Shipment, state model.ShipmentState) (StateChange, error) {
	var c StateChange
	switch state {
	case model.ShipmentStateCreated:
		c = To(TransitionCreated)
	case model.ShipmentStatePacked:
		c = StateChange{Transition: TransitionPacked, Time: s.TimePacked}
	case model.ShipmentStateSent:
		c = StateChange{Transition: TransitionSent, Time: s.TimeSent}
	case model.ShipmentStateReceived:
		c = StateChange{Transition: TransitionReceived, Time: s.TimeReceived}
	case model.ShipmentStateUnpacked:
		c = StateChange{Transition: TransitionUnpacked, Time: s.TimeUnpacked}
	default:
		return StateChange{}, errs.Caller(fmt.Errorf("%w: back to %s", ErrInvalidTransition, state))
	}
	if err := c.Check(s); err != nil {
		return StateChange{}, err
	}
	return c, nil
}
