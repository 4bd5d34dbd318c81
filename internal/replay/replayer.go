package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/settlement-archiver/internal/archival"
	"github.com/angelmondragon/settlement-archiver/internal/contract"
	"github.com/angelmondragon/settlement-archiver/internal/pipeline"
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
	"github.com/angelmondragon/settlement-archiver/pkg/metrics"
)

type settlementHandler interface {
	HandleAs(ctx context.Context, kind string, raw []byte, observe pipeline.Observer) error
}

// Summary counts the outcome of one replay batch.
type Summary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Params struct {
	Pipeline settlementHandler
	Logger   *logger.Logger
	Metrics  *metrics.PipelineMetrics
}

// Replayer reprocesses settlement events submitted by an operator. Each item
// is isolated: a failure is logged with its index and the batch goes on.
type Replayer struct {
	pipeline settlementHandler
	logg     *logger.Logger
	metrics  *metrics.PipelineMetrics
}

func New(params Params) (*Replayer, error) {
	if params.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Replayer{pipeline: params.Pipeline, logg: params.Logger, metrics: params.Metrics}, nil
}

// Replay processes items in order on the calling goroutine. Cancellation of
// ctx does not stop the batch.
func (r *Replayer) Replay(ctx context.Context, items [][]byte) Summary {
	ctx = context.WithoutCancel(ctx)
	summary := Summary{}
	for i, raw := range items {
		summary.Attempted++
		itemCtx := r.logg.WithField(ctx, "index", i)
		if err := r.replayOne(itemCtx, raw); err != nil {
			summary.Failed++
			r.metrics.IncEvent(contract.EventSettlement, string(archival.Classify(err)))
			r.logg.Error(r.logg.WithField(itemCtx, "error_code", pkgerrors.CodeOf(err)), "replay item failed", err)
			r.logg.SecureError(itemCtx, "replay item failed", map[string]any{
				"index": i,
				"event": string(raw),
			}, err)
			continue
		}
		summary.Succeeded++
		r.metrics.IncEvent(contract.EventSettlement, metrics.OutcomeArchived)
	}
	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"attempted": summary.Attempted,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}), "replay finished")
	return summary
}

func (r *Replayer) replayOne(ctx context.Context, raw []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("panic: %v", rec))
		}
	}()
	return r.pipeline.HandleAs(ctx, contract.EventSettlement, raw, nil)
}
