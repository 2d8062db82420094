package shipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/model"
)

func TestFieldUpdates(t *testing.T) {
	s := createTestShipment(model.ShipmentStateCreated, 0, 0)

	tests := []struct {
		update Update
		path   string
		body   any
	}{
		{CourierName("UPS"), "/shipments/courier/ship-1", CourierBody{ExpectedVersion: 5, CourierName: "UPS"}},
		{TrackingNumber("TN-2"), "/shipments/trackingnumber/ship-1", TrackingNumberBody{ExpectedVersion: 5, TrackingNumber: "TN-2"}},
		{FromLocation("l9"), "/shipments/fromlocation/ship-1", LocationBody{ExpectedVersion: 5, LocationID: "l9"}},
		{ToLocation("l8"), "/shipments/tolocation/ship-1", LocationBody{ExpectedVersion: 5, LocationID: "l8"}},
	}

	for _, tt := range tests {
		req, err := BuildUpdate(s, tt.update)
		require.NoError(t, err, tt.update.Attribute())
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, tt.path, req.Path)
		assert.Equal(t, tt.body, req.Body)
	}
}

func TestUpdateCarriesCurrentVersion(t *testing.T) {
	for _, v := range []int64{0, 1, 6, 42} {
		s := createTestShipment(model.ShipmentStateCreated, 1, 1)
		s.Version = v

		req, err := BuildUpdate(s, CourierName("DHL"))
		require.NoError(t, err)
		assert.Equal(t, v, req.Body.(CourierBody).ExpectedVersion)

		req, err = BuildUpdate(s, At(TransitionPacked, t1))
		require.NoError(t, err)
		assert.Equal(t, v, req.Body.(StateBody).ExpectedVersion)
	}
}

func TestUpdateRejectsEmptyValues(t *testing.T) {
	s := createTestShipment(model.ShipmentStateCreated, 0, 0)

	_, err := BuildUpdate(s, CourierName(""))
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.True(t, errs.IsLocal(err))

	_, err = BuildUpdate(s, ToLocation(""))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUpdateUnsavedShipment(t *testing.T) {
	s := model.NewShipment("FedEx", "TN", model.LocationInfo{}, model.LocationInfo{})
	_, err := BuildUpdate(s, CourierName("UPS"))
	assert.ErrorIs(t, err, ErrNotPersisted)
}

func TestNewUpdateInvalidAttribute(t *testing.T) {
	for _, name := range []string{"bogusAttr", "", "CourierName", "version", "id"} {
		_, err := NewUpdate(name, "x")
		require.Error(t, err, name)
		assert.Regexp(t, `invalid attribute name`, err.Error())
		assert.True(t, errs.IsCode(err, errs.CodeCaller))
	}
}

func TestNewUpdate(t *testing.T) {
	u, err := NewUpdate("courierName", "UPS")
	require.NoError(t, err)
	assert.Equal(t, CourierName("UPS"), u)

	u, err = NewUpdate("fromLocation", model.LocationInfo{LocationID: "l3"})
	require.NoError(t, err)
	assert.Equal(t, FromLocation("l3"), u)

	u, err = NewUpdate("toLocation", "l4")
	require.NoError(t, err)
	assert.Equal(t, ToLocation("l4"), u)

	change := At(TransitionSent, t1)
	u, err = NewUpdate("state", &change)
	require.NoError(t, err)
	assert.Equal(t, AttributeState, u.Attribute())

	_, err = NewUpdate("trackingNumber", 12)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = NewUpdate("state", "sent")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestAddRequest(t *testing.T) {
	s := model.NewShipment("FedEx", "TN-1",
		model.LocationInfo{LocationID: "l1"}, model.LocationInfo{LocationID: "l2"})

	req, err := Add(s)
	require.NoError(t, err)
	assert.Equal(t, "/shipments/", req.Path)
	assert.Equal(t, AddBody{CourierName: "FedEx", TrackingNumber: "TN-1", FromLocationID: "l1", ToLocationID: "l2"}, req.Body)

	s.ToLocationInfo.LocationID = ""
	_, err = Add(s)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Add(createTestShipment(model.ShipmentStateCreated, 0, 0))
	assert.ErrorIs(t, err, ErrAlreadyPersisted)
}

func TestRemoveAndGetRequests(t *testing.T) {
	req, err := Remove(createTestShipment(model.ShipmentStateCreated, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "DELETE", req.Method)
	assert.Equal(t, "/shipments/ship-1/5", req.Path)

	_, err = Remove(&model.Shipment{})
	assert.ErrorIs(t, err, ErrNotPersisted)

	req, err = Get("a b")
	require.NoError(t, err)
	assert.Equal(t, "/shipments/a%20b", req.Path)

	_, err = Get("")
	assert.ErrorIs(t, err, ErrNotPersisted)

	req = Search(model.SearchParams{Filter: "state::sent", Page: 1})
	assert.Equal(t, "/shipments/list", req.Path)
	assert.Equal(t, "state::sent", req.Query.Get("filter"))
}
