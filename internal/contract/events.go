package contract

const (
	EventSettlement         = "settlement"
	EventAnnulment          = "annulment"
	EventIncomeReportNeeded = "income_report_needed"

	KeyEventName = "@event_name"
	KeyCreated   = "@created"
	KeyID        = "@id"
)

// Settlement is the contract for a finalized sick-pay decision.
func Settlement() *Contract {
	return New(EventSettlement).
		RequireValue(KeyEventName, EventSettlement).
		RequireDateTime(KeyCreated).
		RequireUUID(KeyID).
		RequireKey("personId", "actorId", "employerOrgNumber", "approvedBy").
		RequireInt("remainingSickDays").
		RequireNumber("incomeBasis").
		RequireBool("autoProcessed").
		RequireDate("periodFrom", "periodTo").
		InterestedInDate("maxPayoutDate").
		RequireArray("disbursement", func(ledger *Contract) {
			ledger.
				RequireKey("ledgerType", "caseSystemId").
				RequireInt("totalAmount").
				RequireArray("payoutLines", payoutLine(true))
		}).
		InterestedInArray("excludedDays", func(day *Contract) {
			day.RequireDate("date").RequireKey("reasonCode")
		})
}

// Annulment is the contract for a reversal of an archived settlement.
func Annulment() *Contract {
	return New(EventAnnulment).
		RequireValue(KeyEventName, EventAnnulment).
		RequireDateTime(KeyCreated, "reversalTimestamp").
		RequireUUID(KeyID).
		RequireKey("personId", "actorId", "employerOrgNumber", "caseSystemId", "caseWorkerId").
		RequireNonEmptyArray("payoutLines", payoutLine(false))
}

// IncomeReportNeeded is the contract for a request to ask the employer for
// an income report.
func IncomeReportNeeded() *Contract {
	return New(EventIncomeReportNeeded).
		RequireValue(KeyEventName, EventIncomeReportNeeded).
		RequireDateTime(KeyCreated).
		RequireUUID(KeyID).
		RequireKey("personId", "employerOrgNumber", "periodId").
		RequireDate("periodFrom", "periodTo")
}

func payoutLine(withDailyRate bool) func(*Contract) {
	return func(line *Contract) {
		line.RequireDate("from", "to").RequireInt("gradePercent", "amount")
		if withDailyRate {
			line.RequireInt("dailyRate")
		}
	}
}

// EventName extracts @event_name without validating anything else. It
// returns "" for bodies that are not JSON objects.
func EventName(raw []byte) string {
	doc, err := decode(raw)
	if err != nil {
		return ""
	}
	name, _ := doc[KeyEventName].(string)
	return name
}
