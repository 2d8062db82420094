package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/biotrack/internal/api"
)

func TestDefaultSeedApplies(t *testing.T) {
	srv := api.NewServer(nil)
	require.NoError(t, defaultSeed().apply(srv))

	sp, err := srv.CanAddSpecimen("SPC-0001")
	require.NoError(t, err)
	assert.Equal(t, "loc-1", sp.LocationInfo.LocationID)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
locations:
  - centreId: c1
    locationId: l1
    name: Lab
specimens:
  - inventoryId: inv-1
    locationId: l1
`), 0o600))

	s, err := loadSeed(path)
	require.NoError(t, err)
	require.Len(t, s.Locations, 1)
	assert.Equal(t, "Lab", s.Locations[0].Name)

	srv := api.NewServer(nil)
	require.NoError(t, s.apply(srv))
	_, err = srv.CanAddSpecimen("inv-1")
	assert.NoError(t, err)
}

func TestSeedWithUnknownLocation(t *testing.T) {
	s := seed{Specimens: []seedSpecimen{{InventoryID: "inv-1", LocationID: "nowhere"}}}
	assert.Error(t, s.apply(api.NewServer(nil)))
}

func TestAddUsers(t *testing.T) {
	srv := api.NewServer(nil)
	passwords, err := addUsers(srv)
	require.NoError(t, err)
	assert.Len(t, passwords["coordinator"], 16)
	assert.Len(t, passwords["viewer"], 16)
}
