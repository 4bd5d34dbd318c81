package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/settlement-archiver/api/responses"
	"github.com/angelmondragon/settlement-archiver/api/validators"
	"github.com/angelmondragon/settlement-archiver/internal/replay"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
)

type SettlementReplayer interface {
	Replay(ctx context.Context, items [][]byte) replay.Summary
}

// AdminReplaySettlements reprocesses a batch of raw settlement events. Item
// failures are only visible in the logs; the response is the same for every
// batch that could be read.
func AdminReplaySettlements(svc SettlementReplayer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := validators.DecodeJSONArray(w, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// the batch outlives a disconnecting caller
		ctx := context.WithoutCancel(r.Context())
		if logg != nil {
			ctx = logg.WithField(ctx, "batch_size", len(items))
			logg.Info(ctx, "replay.start")
		}

		svc.Replay(ctx, items)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
