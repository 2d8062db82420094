package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/biotrack/internal/api"
	"github.com/erazemk/biotrack/internal/model"
)

type seedLocation struct {
	CentreID   string `yaml:"centreId"`
	LocationID string `yaml:"locationId"`
	Name       string `yaml:"name"`
}

type seedSpecimen struct {
	InventoryID string `yaml:"inventoryId"`
	LocationID  string `yaml:"locationId"`
}

// seed is the starting inventory of the simulated biobank.
type seed struct {
	Locations []seedLocation `yaml:"locations"`
	Specimens []seedSpecimen `yaml:"specimens"`
}

func defaultSeed() seed {
	s := seed{
		Locations: []seedLocation{
			{CentreID: "centre-1", LocationID: "loc-1", Name: "Central Biobank Freezer A"},
			{CentreID: "centre-2", LocationID: "loc-2", Name: "City Clinic Intake"},
			{CentreID: "centre-3", LocationID: "loc-3", Name: "Regional Lab Storage"},
		},
	}
	for i := 1; i <= 20; i++ {
		loc := "loc-1"
		if i > 15 {
			loc = "loc-2"
		}
		s.Specimens = append(s.Specimens, seedSpecimen{InventoryID: fmt.Sprintf("SPC-%04d", i), LocationID: loc})
	}
	return s
}

func loadSeed(path string) (seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seed{}, fmt.Errorf("reading seed: %w", err)
	}
	var s seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return seed{}, fmt.Errorf("parsing seed %s: %w", path, err)
	}
	return s, nil
}

func (s seed) apply(srv *api.Server) error {
	for _, l := range s.Locations {
		srv.AddLocation(model.LocationInfo{CentreID: l.CentreID, LocationID: l.LocationID, Name: l.Name})
	}
	for _, sp := range s.Specimens {
		if _, err := srv.AddSpecimen(sp.InventoryID, sp.LocationID); err != nil {
			return fmt.Errorf("adding specimen %s: %w", sp.InventoryID, err)
		}
	}
	return nil
}
