package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/settlement-archiver/internal/contract"
	"github.com/angelmondragon/settlement-archiver/internal/followup"
	"github.com/angelmondragon/settlement-archiver/internal/settlement"
)

// Stage is the step an event is currently in.
type Stage string

const (
	StageValidating    Stage = "validating"
	StageMapping       Stage = "mapping"
	StageOrchestrating Stage = "orchestrating"
)

// ErrUnhandled is returned for events whose @event_name this pipeline does
// not process.
var ErrUnhandled = errors.New("event not handled")

// Observer is told about every stage an event enters. It may be nil.
type Observer func(Stage)

type mapper interface {
	Settlement(ctx context.Context, view *contract.View) (settlement.Settlement, error)
	Annulment(ctx context.Context, view *contract.View) (settlement.Annulment, error)
}

type mediator interface {
	ProcessSettlement(ctx context.Context, s settlement.Settlement) error
	ProcessAnnulment(ctx context.Context, a settlement.Annulment) error
}

type incomeReports interface {
	Publish(ctx context.Context, req followup.Request) error
}

type Params struct {
	Mapper   mapper
	Mediator mediator
	// IncomeReports enables income_report_needed handling when set.
	IncomeReports incomeReports
}

type handler struct {
	contract *contract.Contract
	run      func(ctx context.Context, view *contract.View, observe Observer) error
}

// Pipeline validates, maps and orchestrates one raw event at a time. It
// holds no per-event state.
type Pipeline struct {
	handlers map[string]handler
}

func New(params Params) (*Pipeline, error) {
	if params.Mapper == nil {
		return nil, errors.New("mapper is required")
	}
	if params.Mediator == nil {
		return nil, errors.New("mediator is required")
	}

	p := &Pipeline{handlers: map[string]handler{}}
	p.handlers[contract.EventSettlement] = handler{
		contract: contract.Settlement(),
		run: func(ctx context.Context, view *contract.View, observe Observer) error {
			record, err := params.Mapper.Settlement(ctx, view)
			if err != nil {
				return err
			}
			observe(StageOrchestrating)
			return params.Mediator.ProcessSettlement(ctx, record)
		},
	}
	p.handlers[contract.EventAnnulment] = handler{
		contract: contract.Annulment(),
		run: func(ctx context.Context, view *contract.View, observe Observer) error {
			record, err := params.Mapper.Annulment(ctx, view)
			if err != nil {
				return err
			}
			observe(StageOrchestrating)
			return params.Mediator.ProcessAnnulment(ctx, record)
		},
	}
	if params.IncomeReports != nil {
		p.handlers[contract.EventIncomeReportNeeded] = handler{
			contract: contract.IncomeReportNeeded(),
			run: func(ctx context.Context, view *contract.View, observe Observer) error {
				req := followup.RequestFromView(view)
				observe(StageOrchestrating)
				return params.IncomeReports.Publish(ctx, req)
			},
		}
	}
	return p, nil
}

// Handles reports whether events named name are processed.
func (p *Pipeline) Handles(name string) bool {
	_, ok := p.handlers[name]
	return ok
}

// Handle dispatches raw on its @event_name. It returns the event name and
// ErrUnhandled when no handler is registered for it.
func (p *Pipeline) Handle(ctx context.Context, raw []byte, observe Observer) (string, error) {
	name := contract.EventName(raw)
	if !p.Handles(name) {
		return name, ErrUnhandled
	}
	return name, p.HandleAs(ctx, name, raw, observe)
}

// HandleAs runs raw through the handler for kind regardless of its
// @event_name, so a mismatched event fails the contract.
func (p *Pipeline) HandleAs(ctx context.Context, kind string, raw []byte, observe Observer) error {
	h, ok := p.handlers[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnhandled, kind)
	}
	if observe == nil {
		observe = func(Stage) {}
	}

	observe(StageValidating)
	view, err := h.contract.Validate(raw)
	if err != nil {
		return err
	}

	observe(StageMapping)
	return h.run(ctx, view, observe)
}
