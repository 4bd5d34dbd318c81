package documents

import (
	"github.com/angelmondragon/settlement-archiver/internal/settlement"
	"github.com/angelmondragon/settlement-archiver/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	KindSettlement = "settlement"
	KindAnnulment  = "annulment"
)

// RenderRequest is what the render service turns into a PDF. Kind selects
// the template.
type RenderRequest struct {
	Kind    string
	Payload any
}

// Number is a decimal that encodes as a bare JSON number rather than the
// quoted string decimal.Decimal produces.
type Number struct {
	decimal.Decimal
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

type RenderLine struct {
	From         types.Date `json:"from"`
	To           types.Date `json:"to"`
	GradePercent int        `json:"gradePercent"`
	Amount       int        `json:"amount"`
	Recipient    string     `json:"recipient,omitempty"`
}

type RenderExcludedDays struct {
	From   types.Date `json:"from"`
	To     types.Date `json:"to"`
	Reason string     `json:"reason"`
}

type SettlementDocument struct {
	PersonID          string               `json:"personId"`
	CaseSystemID      string               `json:"caseSystemId"`
	PeriodFrom        types.Date           `json:"periodFrom"`
	PeriodTo          types.Date           `json:"periodTo"`
	PayoutLines       []RenderLine         `json:"payoutLines"`
	EmployerOrgNumber string               `json:"employerOrgNumber"`
	DecisionDate      types.Date           `json:"decisionDate"`
	RemainingSickDays int                  `json:"remainingSickDays"`
	TotalAmount       int                  `json:"totalAmount"`
	ExcludedDays      []RenderExcludedDays `json:"excludedDays"`
	DailyRate         *int                 `json:"dailyRate"`
	MaxPayoutDate     *types.Date          `json:"maxPayoutDate"`
	IncomeBasis       Number               `json:"incomeBasis"`
	ApprovedBy        string               `json:"approvedBy"`
	AutoProcessed     bool                 `json:"autoProcessed"`
}

type AnnulmentDocument struct {
	PersonID          string       `json:"personId"`
	CaseSystemID      string       `json:"caseSystemId"`
	PeriodFrom        types.Date   `json:"periodFrom"`
	PeriodTo          types.Date   `json:"periodTo"`
	EmployerOrgNumber string       `json:"employerOrgNumber"`
	CaseWorkerID      string       `json:"caseWorkerId"`
	Date              types.Date   `json:"date"`
	PayoutLines       []RenderLine `json:"payoutLines"`
}

func SettlementRender(s settlement.Settlement) RenderRequest {
	lines := make([]RenderLine, 0, len(s.Disbursement.PayoutLines))
	for _, line := range s.Disbursement.PayoutLines {
		lines = append(lines, RenderLine{
			From:         line.From,
			To:           line.To,
			GradePercent: line.GradePercent,
			Amount:       line.Amount,
			Recipient:    line.Recipient,
		})
	}

	excluded := make([]RenderExcludedDays, 0, len(s.ExcludedIntervals))
	for _, iv := range s.ExcludedIntervals {
		excluded = append(excluded, RenderExcludedDays{From: iv.From, To: iv.To, Reason: iv.Reason})
	}

	var maxPayout *types.Date
	if s.MaxPayoutDate != nil {
		d := *s.MaxPayoutDate
		maxPayout = &d
	}

	return RenderRequest{
		Kind: KindSettlement,
		Payload: SettlementDocument{
			PersonID:          s.PersonID,
			CaseSystemID:      s.Disbursement.CaseSystemID,
			PeriodFrom:        s.PeriodFrom,
			PeriodTo:          s.PeriodTo,
			PayoutLines:       lines,
			EmployerOrgNumber: s.EmployerOrgNumber,
			DecisionDate:      types.DateOf(s.CreatedAt),
			RemainingSickDays: s.RemainingSickDays,
			TotalAmount:       s.Disbursement.TotalAmount,
			ExcludedDays:      excluded,
			DailyRate:         s.DailyRate(),
			MaxPayoutDate:     maxPayout,
			IncomeBasis:       Number{s.IncomeBasis},
			ApprovedBy:        s.ApprovedBy,
			AutoProcessed:     s.AutoProcessed,
		},
	}
}

func AnnulmentRender(a settlement.Annulment) RenderRequest {
	lines := make([]RenderLine, 0, len(a.PayoutLines))
	for _, line := range a.PayoutLines {
		lines = append(lines, RenderLine{
			From:         line.From,
			To:           line.To,
			GradePercent: line.GradePercent,
			Amount:       line.Amount,
		})
	}

	return RenderRequest{
		Kind: KindAnnulment,
		Payload: AnnulmentDocument{
			PersonID:          a.PersonID,
			CaseSystemID:      a.CaseSystemID,
			PeriodFrom:        a.PeriodFrom,
			PeriodTo:          a.PeriodTo,
			EmployerOrgNumber: a.EmployerOrgNumber,
			CaseWorkerID:      a.CaseWorkerID,
			Date:              types.DateOf(a.ReversedAt),
			PayoutLines:       lines,
		},
	}
}
