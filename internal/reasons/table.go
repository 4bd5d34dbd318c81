package reasons

import (
	"context"
	"fmt"

	"github.com/angelmondragon/settlement-archiver/pkg/logger"
)

const (
	CodeDaysExhausted        = "SykepengedagerOppbrukt"
	CodeMinimumIncome        = "MinimumInntekt"
	CodeSelfCertification    = "EgenmeldingUtenforArbeidsgiverperiode"
	CodeMinimumSicknessGrade = "MinimumSykdomsgrad"
	CodeDayOff               = "Fridag"
	CodeResumedWork          = "Arbeidsdag"
	CodeAfterDeath           = "EtterDødsdato"
)

var texts = map[string]string{
	CodeDaysExhausted:        "sick-pay days exhausted",
	CodeMinimumIncome:        "income basis below statutory floor",
	CodeSelfCertification:    "self-certification outside employer period",
	CodeMinimumSicknessGrade: "degree of sickness below 20%",
	CodeDayOff:               "holiday/leave",
	CodeResumedWork:          "resumed work",
	CodeAfterDeath:           "deceased",
}

// Lookup returns the display text for a known exclusion code.
func Lookup(code string) (string, bool) {
	text, ok := texts[code]
	return text, ok
}

// Fallback is the text used for codes missing from the table.
func Fallback(code string) string {
	return fmt.Sprintf("unknown day type: %q", code)
}

// Table translates exclusion codes and reports codes it does not know.
type Table struct {
	logg *logger.Logger
}

func NewTable(logg *logger.Logger) *Table {
	return &Table{logg: logg}
}

// Describe never fails: unknown codes produce Fallback and a warning.
func (t *Table) Describe(ctx context.Context, code string) string {
	if text, ok := Lookup(code); ok {
		return text
	}
	if t != nil && t.logg != nil {
		t.logg.Warn(t.logg.WithField(ctx, "reason_code", code), "unknown excluded day reason code")
	}
	return Fallback(code)
}
