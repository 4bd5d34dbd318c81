package settlement

import (
	"context"
	"fmt"

	"github.com/angelmondragon/settlement-archiver/internal/contract"
	"github.com/angelmondragon/settlement-archiver/internal/intervals"
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
)

type reasonDescriber interface {
	Describe(ctx context.Context, code string) string
}

// Mapper turns validated events into canonical records.
type Mapper struct {
	reasons reasonDescriber
}

func NewMapper(reasons reasonDescriber) (*Mapper, error) {
	if reasons == nil {
		return nil, fmt.Errorf("reason table is required")
	}
	return &Mapper{reasons: reasons}, nil
}

// Settlement maps a validated settlement event. It fails with MAPPING_ERROR
// unless exactly one employer refund ledger entry is present.
func (m *Mapper) Settlement(ctx context.Context, view *contract.View) (Settlement, error) {
	ledger, err := employerRefundLedger(view.Array("disbursement"))
	if err != nil {
		return Settlement{}, err
	}

	excluded := make([]intervals.Day, 0)
	for _, item := range view.Array("excludedDays") {
		excluded = append(excluded, intervals.Day{
			Date:       item.Date("date"),
			ReasonCode: item.String("reasonCode"),
		})
	}

	compacted := intervals.Compact(excluded)
	described := make([]ExcludedInterval, 0, len(compacted))
	for _, iv := range compacted {
		described = append(described, ExcludedInterval{
			From:   iv.From,
			To:     iv.To,
			Code:   iv.ReasonCode,
			Reason: m.reasons.Describe(ctx, iv.ReasonCode),
		})
	}

	return Settlement{
		EventID:           view.UUID(contract.KeyID),
		CreatedAt:         view.DateTime(contract.KeyCreated),
		PersonID:          view.String("personId"),
		ActorID:           view.String("actorId"),
		EmployerOrgNumber: view.String("employerOrgNumber"),
		PeriodFrom:        view.Date("periodFrom"),
		PeriodTo:          view.Date("periodTo"),
		RemainingSickDays: view.Int("remainingSickDays"),
		AutoProcessed:     view.Bool("autoProcessed"),
		ApprovedBy:        view.String("approvedBy"),
		MaxPayoutDate:     view.OptionalDate("maxPayoutDate"),
		IncomeBasis:       view.Decimal("incomeBasis"),
		Disbursement: Disbursement{
			CaseSystemID: ledger.String("caseSystemId"),
			TotalAmount:  ledger.Int("totalAmount"),
			PayoutLines:  payoutLines(ledger.Array("payoutLines"), true),
		},
		ExcludedDays:      excluded,
		ExcludedIntervals: described,
	}, nil
}

// Annulment maps a validated annulment event.
func (m *Mapper) Annulment(ctx context.Context, view *contract.View) (Annulment, error) {
	lines := payoutLines(view.Array("payoutLines"), false)
	if len(lines) == 0 {
		return Annulment{}, pkgerrors.New(pkgerrors.CodeMapping, "annulment has no payout lines to derive its period from")
	}

	from, to := lines[0].From, lines[0].To
	for _, line := range lines[1:] {
		if line.From.Before(from) {
			from = line.From
		}
		if line.To.After(to) {
			to = line.To
		}
	}

	return Annulment{
		EventID:           view.UUID(contract.KeyID),
		CreatedAt:         view.DateTime(contract.KeyCreated),
		PersonID:          view.String("personId"),
		ActorID:           view.String("actorId"),
		EmployerOrgNumber: view.String("employerOrgNumber"),
		CaseSystemID:      view.String("caseSystemId"),
		CaseWorkerID:      view.String("caseWorkerId"),
		ReversedAt:        view.DateTime("reversalTimestamp"),
		PeriodFrom:        from,
		PeriodTo:          to,
		PayoutLines:       lines,
	}, nil
}

func employerRefundLedger(ledgers []*contract.View) (*contract.View, error) {
	var found *contract.View
	count := 0
	for _, ledger := range ledgers {
		if ledger.String("ledgerType") == LedgerEmployerRefund {
			found = ledger
			count++
		}
	}
	switch count {
	case 1:
		return found, nil
	case 0:
		return nil, pkgerrors.New(pkgerrors.CodeMapping, "no employer refund ledger entry").
			WithDetails(map[string]any{"ledgerType": LedgerEmployerRefund, "found": 0})
	default:
		return nil, pkgerrors.New(pkgerrors.CodeMapping, "more than one employer refund ledger entry").
			WithDetails(map[string]any{"ledgerType": LedgerEmployerRefund, "found": count})
	}
}

func payoutLines(items []*contract.View, withDailyRate bool) []PayoutLine {
	out := make([]PayoutLine, 0, len(items))
	for _, item := range items {
		line := PayoutLine{
			From:         item.Date("from"),
			To:           item.Date("to"),
			GradePercent: item.Int("gradePercent"),
			Amount:       item.Int("amount"),
			Recipient:    RecipientEmployer,
		}
		if withDailyRate && item.Has("dailyRate") {
			rate := item.Int("dailyRate")
			line.DailyRate = &rate
		}
		out = append(out, line)
	}
	return out
}
