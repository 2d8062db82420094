package client

import (
	"context"
	"net/http"

	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/model"
	"github.com/erazemk/biotrack/internal/shipment"
)

// Get fetches one shipment.
func (c *Client) Get(ctx context.Context, id string) (*model.Shipment, error) {
	req, err := shipment.Get(id)
	if err != nil {
		return nil, err
	}
	return c.shipment(ctx, req)
}

// Search fetches one page of shipments.
func (c *Client) Search(ctx context.Context, params model.SearchParams) (*model.PagedReply[model.Shipment], error) {
	var page model.PagedReply[model.Shipment]
	if err := c.do(ctx, shipment.Search(params), "paged reply", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Add saves a new shipment and returns it as the server created it.
func (c *Client) Add(ctx context.Context, s *model.Shipment) (*model.Shipment, error) {
	req, err := shipment.Add(s)
	if err != nil {
		return nil, err
	}
	return c.shipment(ctx, req)
}

// Update applies u to the shipment the caller holds. The request carries the
// caller's version; a stale version fails with a conflict and is never retried.
func (c *Client) Update(ctx context.Context, s *model.Shipment, u shipment.Update) (*model.Shipment, error) {
	req, err := shipment.BuildUpdate(s, u)
	if err != nil {
		return nil, err
	}
	return c.shipment(ctx, req)
}

// UpdateAttribute is Update for callers holding the attribute as a name.
func (c *Client) UpdateAttribute(ctx context.Context, s *model.Shipment, attribute string, value any) (*model.Shipment, error) {
	u, err := shipment.NewUpdate(attribute, value)
	if err != nil {
		return nil, err
	}
	return c.Update(ctx, s, u)
}

// ChangeState applies a state transition.
func (c *Client) ChangeState(ctx context.Context, s *model.Shipment, change shipment.StateChange) (*model.Shipment, error) {
	return c.Update(ctx, s, change)
}

// Remove deletes the shipment at its current version and returns its id.
func (c *Client) Remove(ctx context.Context, s *model.Shipment) (string, error) {
	req, err := shipment.Remove(s)
	if err != nil {
		return "", err
	}
	var removed bool
	if err := c.do(ctx, req, "removal confirmation", &removed); err != nil {
		return "", err
	}
	if !removed {
		return "", errs.Protocol(req.Op, "server did not confirm removal")
	}
	return s.ID, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := shipment.Request{
		Op:     "[Auth] Login",
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"username": username, "password": password},
	}
	var reply struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, req, "token", &reply); err != nil {
		return "", err
	}
	return reply.Token, nil
}

func (c *Client) shipment(ctx context.Context, req shipment.Request) (*model.Shipment, error) {
	var s model.Shipment
	if err := c.do(ctx, req, "shipment", &s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, errs.Protocol(req.Op, "expected a shipment object")
	}
	return &s, nil
}
