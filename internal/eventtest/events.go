// Package eventtest builds raw bus events for tests.
package eventtest

import (
	"encoding/json"
)

const (
	SettlementID = "e8eb9ffa-57b7-4fe0-b44c-471b2b306bb6"
	AnnulmentID  = "2f4b6d5e-8a2c-4c3b-9a41-7b1f0c9d2e10"
	IncomeID     = "6a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	PersonID     = "12345678910"
	OrgNumber    = "123456789"
)

// Null is an override that keeps the key with a JSON null value.
var Null = json.RawMessage("null")

// Settlement returns the base settlement event with overrides applied. A
// nil override value deletes the key.
func Settlement(overrides map[string]any) map[string]any {
	event := map[string]any{
		"@event_name":       "settlement",
		"@created":          "2020-05-04T11:26:30.23118",
		"@id":               SettlementID,
		"personId":          PersonID,
		"actorId":           "1000000000001",
		"employerOrgNumber": OrgNumber,
		"remainingSickDays": 233,
		"periodFrom":        "2020-05-11",
		"periodTo":          "2020-05-30",
		"incomeBasis":       372000.0,
		"approvedBy":        "S123456",
		"autoProcessed":     false,
		"maxPayoutDate":     "2021-04-30",
		"disbursement": []any{
			map[string]any{
				"ledgerType":   "SPREF",
				"caseSystemId": "WKOZJT3JYNB3VNT5CE5U54R3Y4",
				"totalAmount":  21465,
				"payoutLines": []any{
					payoutLine("2020-05-11", "2020-05-20", 100, 1431, 1431),
					payoutLine("2020-05-21", "2020-05-30", 50, 1431, 1431),
				},
			},
			map[string]any{
				"ledgerType":   "SP",
				"caseSystemId": "PERSONLEDGER",
				"totalAmount":  0,
				"payoutLines":  []any{},
			},
		},
		"excludedDays": []any{},
	}
	return apply(event, overrides)
}

// Annulment returns the base annulment event with overrides applied.
func Annulment(overrides map[string]any) map[string]any {
	event := map[string]any{
		"@event_name":       "annulment",
		"@created":          "2020-05-04T11:26:30.23118",
		"@id":               AnnulmentID,
		"personId":          PersonID,
		"actorId":           "1000000000001",
		"employerOrgNumber": OrgNumber,
		"caseSystemId":      "WKOZJT3JYNB3VNT5CE5U54R3Y4",
		"caseWorkerId":      "S123456",
		"reversalTimestamp": "2020-06-01T09:00:00Z",
		"payoutLines": []any{
			map[string]any{"from": "2020-05-21", "to": "2020-05-30", "gradePercent": 100, "amount": 1431},
			map[string]any{"from": "2020-05-11", "to": "2020-05-20", "gradePercent": 100, "amount": 1431},
		},
	}
	return apply(event, overrides)
}

// IncomeReportNeeded returns the base income report request event.
func IncomeReportNeeded(overrides map[string]any) map[string]any {
	event := map[string]any{
		"@event_name":       "income_report_needed",
		"@created":          "2021-01-04T08:00:00Z",
		"@id":               IncomeID,
		"personId":          PersonID,
		"employerOrgNumber": OrgNumber,
		"periodId":          "b5f1c0d2-4b8e-4a9c-9f0e-1d2c3b4a5e6f",
		"periodFrom":        "2021-01-01",
		"periodTo":          "2021-01-31",
	}
	return apply(event, overrides)
}

func payoutLine(from, to string, grade, dailyRate, amount int) map[string]any {
	return map[string]any{
		"from":         from,
		"to":           to,
		"gradePercent": grade,
		"dailyRate":    dailyRate,
		"amount":       amount,
	}
}

// PayoutLine builds one settlement payout line.
func PayoutLine(from, to string, grade, dailyRate, amount int) map[string]any {
	return payoutLine(from, to, grade, dailyRate, amount)
}

// ExcludedDays expands an inclusive range into per-day entries.
func ExcludedDays(dates []string, code string) []any {
	out := make([]any, 0, len(dates))
	for _, d := range dates {
		out = append(out, map[string]any{"date": d, "reasonCode": code})
	}
	return out
}

// JSON marshals an event and panics on failure.
func JSON(event any) []byte {
	raw, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return raw
}

func apply(event map[string]any, overrides map[string]any) map[string]any {
	for k, v := range overrides {
		if v == nil {
			delete(event, k)
			continue
		}
		event[k] = v
	}
	return event
}
