package settlement

import (
	"time"

	"github.com/angelmondragon/settlement-archiver/internal/intervals"
	"github.com/angelmondragon/settlement-archiver/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LedgerEmployerRefund = "SPREF"
	RecipientEmployer    = "employer"
)

type PayoutLine struct {
	From         types.Date
	To           types.Date
	GradePercent int
	Amount       int
	DailyRate    *int
	Recipient    string
}

type Disbursement struct {
	CaseSystemID string
	TotalAmount  int
	PayoutLines  []PayoutLine
}

// ExcludedInterval is a compacted run of excluded days with its display
// text.
type ExcludedInterval struct {
	From   types.Date
	To     types.Date
	Code   string
	Reason string
}

// Settlement is the canonical form of a settlement event. It is not
// modified after the mapper returns it.
type Settlement struct {
	EventID           uuid.UUID
	CreatedAt         time.Time
	PersonID          string
	ActorID           string
	EmployerOrgNumber string
	PeriodFrom        types.Date
	PeriodTo          types.Date
	RemainingSickDays int
	AutoProcessed     bool
	ApprovedBy        string
	MaxPayoutDate     *types.Date
	IncomeBasis       decimal.Decimal
	Disbursement      Disbursement
	ExcludedDays      []intervals.Day
	ExcludedIntervals []ExcludedInterval
}

// DailyRate is the first payout line's rate, or nil without lines.
func (s Settlement) DailyRate() *int {
	if len(s.Disbursement.PayoutLines) == 0 {
		return nil
	}
	rate := s.Disbursement.PayoutLines[0].DailyRate
	if rate == nil {
		return nil
	}
	v := *rate
	return &v
}

// Annulment is the canonical form of an annulment event. The period is
// derived from its payout lines.
type Annulment struct {
	EventID           uuid.UUID
	CreatedAt         time.Time
	PersonID          string
	ActorID           string
	EmployerOrgNumber string
	CaseSystemID      string
	CaseWorkerID      string
	ReversedAt        time.Time
	PeriodFrom        types.Date
	PeriodTo          types.Date
	PayoutLines       []PayoutLine
}
