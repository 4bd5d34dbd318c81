package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/settlement-archiver/internal/contract"
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
	"github.com/angelmondragon/settlement-archiver/pkg/pubsub"
	"github.com/angelmondragon/settlement-archiver/pkg/types"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	EventRequestPublished = "income_report_request_published"
	employerEventType     = "income_report_requested"
	defaultPublishTimeout = 15 * time.Second
)

// Request asks an employer for the income report covering a period.
type Request struct {
	EventID           uuid.UUID
	CreatedAt         time.Time
	PersonID          string
	EmployerOrgNumber string
	PeriodID          string
	PeriodFrom        types.Date
	PeriodTo          types.Date
}

// RequestFromView maps a validated income_report_needed event.
func RequestFromView(view *contract.View) Request {
	return Request{
		EventID:           view.UUID(contract.KeyID),
		CreatedAt:         view.DateTime(contract.KeyCreated),
		PersonID:          view.String("personId"),
		EmployerOrgNumber: view.String("employerOrgNumber"),
		PeriodID:          view.String("periodId"),
		PeriodFrom:        view.Date("periodFrom"),
		PeriodTo:          view.Date("periodTo"),
	}
}

type employerMessage struct {
	EmployerOrgNumber string     `json:"employerOrgNumber"`
	PersonID          string     `json:"personId"`
	PeriodFrom        types.Date `json:"periodFrom"`
	PeriodTo          types.Date `json:"periodTo"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type publishedEvent struct {
	EventName     string    `json:"@event_name"`
	ID            string    `json:"@id"`
	Created       time.Time `json:"@created"`
	PeriodID      string    `json:"periodId"`
	CorrelationID string    `json:"correlationId"`
}

type busPublisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type PublisherParams struct {
	Employer pubsub.Publisher
	Bus      busPublisher
	Logger   *logger.Logger
	NewID    func() uuid.UUID
	Now      func() time.Time
}

// Publisher forwards income report requests to the employer topic and
// announces each one back on the bus.
type Publisher struct {
	employer pubsub.Publisher
	bus      busPublisher
	logg     *logger.Logger
	newID    func() uuid.UUID
	now      func() time.Time
}

func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Employer == nil {
		return nil, errors.New("employer publisher is required")
	}
	if params.Bus == nil {
		return nil, errors.New("bus publisher is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	newID := params.NewID
	if newID == nil {
		newID = uuid.New
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Publisher{
		employer: params.Employer,
		bus:      params.Bus,
		logg:     params.Logger,
		newID:    newID,
		now:      now,
	}, nil
}

// Publish sends req to the employer topic, then publishes the follow-up
// event keyed by person id. Failures are DEPENDENCY_ERROR.
func (p *Publisher) Publish(ctx context.Context, req Request) error {
	ctx = p.logg.WithFields(ctx, map[string]any{
		"event_id":  req.EventID.String(),
		"period_id": req.PeriodID,
	})

	data, err := json.Marshal(employerMessage{
		EmployerOrgNumber: req.EmployerOrgNumber,
		PersonID:          req.PersonID,
		PeriodFrom:        req.PeriodFrom,
		PeriodTo:          req.PeriodTo,
		CreatedAt:         req.CreatedAt,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal employer message")
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := p.employer.Publish(publishCtx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":   req.EventID.String(),
			"event_type": employerEventType,
		},
	})
	if result == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "employer publisher returned no result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish employer request")
	}
	p.logg.Info(ctx, "income report requested from employer")

	event, err := json.Marshal(publishedEvent{
		EventName:     EventRequestPublished,
		ID:            p.newID().String(),
		Created:       p.now().UTC(),
		PeriodID:      req.PeriodID,
		CorrelationID: req.EventID.String(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal follow-up event")
	}
	if err := p.bus.Publish(ctx, []byte(req.PersonID), event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("publish %s", EventRequestPublished))
	}
	p.logg.Info(ctx, "income report request announced")
	return nil
}
