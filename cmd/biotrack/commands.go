package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/erazemk/biotrack/internal/client"
	"github.com/erazemk/biotrack/internal/model"
	"github.com/erazemk/biotrack/internal/service"
	"github.com/erazemk/biotrack/internal/shipment"
)

var errUsage = errors.New("invalid arguments, see biotrack -help")

type app struct {
	svc    *service.Service
	client *client.Client
	out    io.Writer
	now    func() time.Time
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "get":
		return a.get(ctx, args)
	case "search":
		return a.search(ctx, args)
	case "add":
		return a.add(ctx, args)
	case "set":
		return a.set(ctx, args)
	case "state":
		return a.state(ctx, args)
	case "back-to":
		return a.backTo(ctx, args)
	case "remove":
		return a.remove(ctx, args)
	case "can-add":
		return a.canAdd(ctx, args)
	case "add-specimens":
		return a.addSpecimens(ctx, args)
	case "tag":
		return a.tag(ctx, args)
	case "specimens":
		return a.specimens(ctx, args)
	case "remove-specimen":
		return a.removeSpecimen(ctx, args)
	case "cached":
		return a.print(a.svc.Cache().All())
	}
	return fmt.Errorf("unknown command %q, see biotrack -help", cmd)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	token, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, token)
	return err
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	s, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return a.print(s)
}

// searchFlags parses the paging flags shared by search and specimens.
func searchFlags(name string, args []string) (model.SearchParams, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var p model.SearchParams
	fs.StringVar(&p.Filter, "filter", "", "")
	fs.StringVar(&p.Sort, "sort", "", "")
	fs.IntVar(&p.Page, "page", 0, "")
	fs.IntVar(&p.Limit, "limit", 0, "")
	if err := fs.Parse(args); err != nil {
		return p, nil, errUsage
	}
	return p, fs.Args(), nil
}

func (a *app) search(ctx context.Context, args []string) error {
	params, rest, err := searchFlags("search", args)
	if err != nil || len(rest) != 0 {
		return errUsage
	}
	page, err := a.svc.Search(ctx, params)
	if err != nil {
		return err
	}
	return a.print(page)
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errUsage
	}
	s := model.NewShipment(args[0], args[1],
		model.LocationInfo{LocationID: args[2]},
		model.LocationInfo{LocationID: args[3]},
	)
	added, err := a.svc.Add(ctx, s)
	if err != nil {
		return err
	}
	return a.print(added)
}

func (a *app) set(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	if args[1] == string(shipment.AttributeState) {
		return errors.New("use the state command to change state")
	}
	s, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	updated, err := a.svc.UpdateAttribute(ctx, s, args[1], args[2])
	if err != nil {
		return err
	}
	return a.print(updated)
}

func (a *app) parseTime(arg string) (time.Time, error) {
	if arg == "" || arg == "now" {
		return a.clock(), nil
	}
	t, err := time.Parse(time.RFC3339, arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", arg, err)
	}
	return t, nil
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now().UTC().Truncate(time.Second)
}

// stateChange builds the change for a transition from optional time arguments.
func (a *app) stateChange(t shipment.Transition, times []string) (shipment.StateChange, error) {
	if len(times) > 2 {
		return shipment.StateChange{}, errUsage
	}
	args := make([]string, 2)
	copy(args, times)

	first, err := a.parseTime(args[0])
	if err != nil {
		return shipment.StateChange{}, err
	}
	switch {
	case t == shipment.TransitionCreated || t == shipment.TransitionLost:
		return shipment.To(t), nil
	case t.IsSkip():
		second, err := a.parseTime(args[1])
		if err != nil {
			return shipment.StateChange{}, err
		}
		return shipment.Skip(t, first, second), nil
	default:
		return shipment.At(t, first), nil
	}
}

func (a *app) state(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	t, err := shipment.ParseTransition(args[1])
	if err != nil {
		return err
	}
	change, err := a.stateChange(t, args[2:])
	if err != nil {
		return err
	}
	s, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	updated, err := a.svc.ChangeState(ctx, s, change)
	if err != nil {
		return err
	}
	return a.print(updated)
}

func (a *app) backTo(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	state := model.ShipmentState(args[1])
	if !state.Valid() {
		return fmt.Errorf("unknown state %q", args[1])
	}
	s, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	updated, err := a.svc.BackTo(ctx, s, state)
	if err != nil {
		return err
	}
	return a.print(updated)
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	s, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.svc.Remove(ctx, s); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "removed %s\n", a.svc.Cache().LastRemovedID())
	return err
}

func (a *app) canAdd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	sp, err := a.svc.CanAddSpecimen(ctx, args[0])
	if err != nil {
		return err
	}
	return a.print(sp)
}

func (a *app) addSpecimens(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-specimens", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	container := fs.String("container", "", "")
	if err := fs.Parse(args); err != nil || fs.NArg() < 2 {
		return errUsage
	}
	s, err := a.svc.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	updated, err := a.svc.AddSpecimens(ctx, s, fs.Args()[1:], *container)
	if err != nil {
		return err
	}
	return a.print(updated)
}

func (a *app) tag(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	s, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	updated, err := a.svc.TagSpecimens(ctx, s, model.ShipmentItemState(args[1]), args[2:])
	if err != nil {
		return err
	}
	return a.print(updated)
}

func (a *app) specimens(ctx context.Context, args []string) error {
	params, rest, err := searchFlags("specimens", args)
	if err != nil || len(rest) != 1 {
		return errUsage
	}
	page, err := a.svc.ListSpecimens(ctx, rest[0], params)
	if err != nil {
		return err
	}
	return a.print(page)
}

func (a *app) removeSpecimen(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	s, err := a.svc.Get(ctx, args[0])
	if err != nil {
		return err
	}
	page, err := a.svc.ListSpecimens(ctx, s.ID, model.SearchParams{Filter: "inventoryId::" + args[1]})
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		return fmt.Errorf("specimen %s is not in shipment %s", args[1], s.ID)
	}
	updated, err := a.svc.RemoveSpecimen(ctx, s, &page.Items[0])
	if err != nil {
		return err
	}
	return a.print(updated)
}
