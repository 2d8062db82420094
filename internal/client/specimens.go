package client

import (
	"context"

	"github.com/erazemk/biotrack/internal/model"
	"github.com/erazemk/biotrack/internal/shipment"
)

// CanAddSpecimen returns the specimen if it may be added to a shipment.
func (c *Client) CanAddSpecimen(ctx context.Context, inventoryID string) (*model.Specimen, error) {
	req, err := shipment.CanAddSpecimen(inventoryID)
	if err != nil {
		return nil, err
	}
	var sp model.Specimen
	if err := c.do(ctx, req, "specimen", &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

// AddSpecimens adds specimens to a created shipment.
func (c *Client) AddSpecimens(ctx context.Context, s *model.Shipment, inventoryIDs []string, containerID string) (*model.Shipment, error) {
	req, err := shipment.AddSpecimens(s, inventoryIDs, containerID)
	if err != nil {
		return nil, err
	}
	return c.shipment(ctx, req)
}

// TagSpecimens tags specimens of an unpacked shipment in one request.
func (c *Client) TagSpecimens(ctx context.Context, s *model.Shipment, tag model.ShipmentItemState, inventoryIDs []string) (*model.Shipment, error) {
	req, err := shipment.TagSpecimens(s, tag, inventoryIDs)
	if err != nil {
		return nil, err
	}
	return c.shipment(ctx, req)
}

// ListSpecimens fetches one page of a shipment's specimens.
func (c *Client) ListSpecimens(ctx context.Context, shipmentID string, params model.SearchParams) (*model.PagedReply[model.ShipmentSpecimen], error) {
	req, err := shipment.ListSpecimens(shipmentID, params)
	if err != nil {
		return nil, err
	}
	var page model.PagedReply[model.ShipmentSpecimen]
	if err := c.do(ctx, req, "paged reply", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RemoveSpecimen removes a specimen from a created shipment.
func (c *Client) RemoveSpecimen(ctx context.Context, s *model.Shipment, ss *model.ShipmentSpecimen) (*model.Shipment, error) {
	req, err := shipment.RemoveSpecimen(s, ss)
	if err != nil {
		return nil, err
	}
	return c.shipment(ctx, req)
}
