package archival

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/settlement-archiver/internal/documents"
	"github.com/angelmondragon/settlement-archiver/internal/settlement"
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
	"github.com/angelmondragon/settlement-archiver/pkg/metrics"
)

type Renderer interface {
	Render(ctx context.Context, kind string, payload any) ([]byte, error)
}

type Archiver interface {
	Archive(ctx context.Context, consumerToken string, payload any) error
}

type MediatorParams struct {
	Renderer Renderer
	Archiver Archiver
	Logger   *logger.Logger
	Metrics  *metrics.PipelineMetrics
}

// Mediator renders a record and archives the resulting document. The two
// calls run in order on the caller's goroutine.
type Mediator struct {
	renderer Renderer
	archiver Archiver
	logg     *logger.Logger
	metrics  *metrics.PipelineMetrics
}

func NewMediator(params MediatorParams) (*Mediator, error) {
	if params.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if params.Archiver == nil {
		return nil, errors.New("archiver is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Mediator{
		renderer: params.Renderer,
		archiver: params.Archiver,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

type job struct {
	kind         string
	eventID      string
	actorID      string
	caseSystemID string
	record       any
	render       documents.RenderRequest
	archive      func(document []byte) documents.ArchiveRequest
}

func (m *Mediator) ProcessSettlement(ctx context.Context, s settlement.Settlement) error {
	return m.process(ctx, job{
		kind:         documents.KindSettlement,
		eventID:      s.EventID.String(),
		actorID:      s.ActorID,
		caseSystemID: s.Disbursement.CaseSystemID,
		record:       s,
		render:       documents.SettlementRender(s),
		archive: func(document []byte) documents.ArchiveRequest {
			return documents.SettlementArchive(s, document)
		},
	})
}

func (m *Mediator) ProcessAnnulment(ctx context.Context, a settlement.Annulment) error {
	return m.process(ctx, job{
		kind:         documents.KindAnnulment,
		eventID:      a.EventID.String(),
		actorID:      a.ActorID,
		caseSystemID: a.CaseSystemID,
		record:       a,
		render:       documents.AnnulmentRender(a),
		archive: func(document []byte) documents.ArchiveRequest {
			return documents.AnnulmentArchive(a, document)
		},
	})
}

func (m *Mediator) process(ctx context.Context, j job) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"event_id":       j.eventID,
		"kind":           j.kind,
		"actor_id":       j.actorID,
		"case_system_id": j.caseSystemID,
	})

	started := time.Now()
	err := m.renderAndArchive(ctx, j)
	m.metrics.ObserveArchival(j.kind, time.Since(started))

	if err != nil {
		m.logg.Error(m.logg.WithField(ctx, "error_code", pkgerrors.CodeOf(err)), "archival failed", err)
		m.logg.SecureError(ctx, "archival failed", map[string]any{
			"event_id": j.eventID,
			"kind":     j.kind,
			"record":   j.record,
		}, err)
		return err
	}

	m.logg.Info(ctx, "document archived")
	return nil
}

func (m *Mediator) renderAndArchive(ctx context.Context, j job) error {
	document, err := m.renderer.Render(ctx, j.render.Kind, j.render.Payload)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeRenderFailed) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeRenderFailed, err, "render document")
	}
	if len(document) == 0 {
		return pkgerrors.New(pkgerrors.CodeRenderFailed, "render service returned an empty document")
	}

	if err := m.archiver.Archive(ctx, j.eventID, j.archive(document)); err != nil {
		switch pkgerrors.CodeOf(err) {
		case pkgerrors.CodeArchiveRejected, pkgerrors.CodeDependency:
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeArchiveRejected, err, "archive document")
	}
	return nil
}
