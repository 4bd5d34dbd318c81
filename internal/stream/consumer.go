package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/settlement-archiver/internal/archival"
	"github.com/angelmondragon/settlement-archiver/internal/contract"
	"github.com/angelmondragon/settlement-archiver/internal/pipeline"
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"github.com/angelmondragon/settlement-archiver/pkg/kafka"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
	"github.com/angelmondragon/settlement-archiver/pkg/metrics"
)

// State is the consumer's position in the per-message state machine.
type State string

const (
	StateListening     State = "listening"
	StateValidating    State = "validating"
	StateMapping       State = "mapping"
	StateOrchestrating State = "orchestrating"
	StateHalted        State = "halted"
)

const (
	defaultFetchBackoff = 500 * time.Millisecond
	maxFetchBackoff     = 10 * time.Second
)

// ErrHalted is returned once a fatal event stopped the consumer. The
// offending message is left uncommitted.
var ErrHalted = errors.New("stream consumer halted")

type MessageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type eventHandler interface {
	Handle(ctx context.Context, raw []byte, observe pipeline.Observer) (string, error)
}

type ConsumerParams struct {
	Source       MessageSource
	Pipeline     eventHandler
	Logger       *logger.Logger
	Metrics      *metrics.PipelineMetrics
	FetchBackoff time.Duration
}

// Consumer reads one message at a time and runs it through the pipeline.
// Fatal failures halt it; everything else is committed.
type Consumer struct {
	source   MessageSource
	pipeline eventHandler
	logg     *logger.Logger
	metrics  *metrics.PipelineMetrics
	backoff  time.Duration

	mu    sync.RWMutex
	state State
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Source == nil {
		return nil, errors.New("message source is required")
	}
	if params.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	backoff := params.FetchBackoff
	if backoff <= 0 {
		backoff = defaultFetchBackoff
	}
	return &Consumer{
		source:   params.Source,
		pipeline: params.Pipeline,
		logg:     params.Logger,
		metrics:  params.Metrics,
		backoff:  backoff,
		state:    StateListening,
	}, nil
}

func (c *Consumer) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Consumer) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

func (c *Consumer) observe(stage pipeline.Stage) {
	switch stage {
	case pipeline.StageValidating:
		c.setState(StateValidating)
	case pipeline.StageMapping:
		c.setState(StateMapping)
	case pipeline.StageOrchestrating:
		c.setState(StateOrchestrating)
	}
}

// Run consumes until ctx is canceled or a fatal event halts the consumer.
func (c *Consumer) Run(ctx context.Context) error {
	if c.State() == StateHalted {
		return ErrHalted
	}

	backoff := c.backoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.setState(StateListening)
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logg.Error(ctx, "fetch message failed", err)
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, c.backoff, maxFetchBackoff)
			continue
		}
		backoff = c.backoff

		if err := c.consume(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) consume(ctx context.Context, msg kafka.Message) error {
	ctx = c.logg.WithFields(ctx, map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	name, err := c.handle(ctx, msg.Value)
	switch {
	case err == nil:
		c.metrics.IncEvent(name, successOutcome(name))
	case errors.Is(err, pipeline.ErrUnhandled):
		c.metrics.IncEvent(name, metrics.OutcomeSkipped)
	default:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ctx = c.logg.WithFields(ctx, map[string]any{
			"event_name": name,
			"error_code": pkgerrors.CodeOf(err),
		})
		if archival.Classify(err) == archival.Fatal {
			c.logg.Error(ctx, "fatal event, halting consumer", err)
			c.logg.SecureError(ctx, "fatal event", map[string]any{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"event":     string(msg.Value),
			}, err)
			c.setState(StateHalted)
			c.metrics.IncEvent(name, metrics.OutcomeFatal)
			c.metrics.SetHalted(true)
			return fmt.Errorf("%w: %w", ErrHalted, err)
		}
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "event failed downstream, continuing")
		c.metrics.IncEvent(name, metrics.OutcomeTransient)
	}

	if err := c.source.CommitMessages(ctx, msg); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logg.Error(ctx, "commit message failed", err)
	}
	return nil
}

// handle runs the pipeline and turns a panic into an INTERNAL_ERROR, which
// classifies as fatal.
func (c *Consumer) handle(ctx context.Context, raw []byte) (name string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			name = contract.EventName(raw)
			err = pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("panic: %v", rec))
		}
	}()
	return c.pipeline.Handle(ctx, raw, c.observe)
}

func successOutcome(name string) string {
	if name == contract.EventIncomeReportNeeded {
		return metrics.OutcomePublished
	}
	return metrics.OutcomeArchived
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}
