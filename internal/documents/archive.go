package documents

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/angelmondragon/settlement-archiver/internal/settlement"
	"github.com/angelmondragon/settlement-archiver/pkg/types"
)

const (
	SettlementTitle = "Vedtak om sykepenger"
	AnnulmentTitle  = "Annullering av vedtak om sykepenger"

	journalPostType  = "NOTAT"
	theme            = "SYK"
	behaviourTheme   = "ab0061"
	journalUnit      = "9999"
	subjectIDType    = "FNR"
	caseType         = "GENERELL_SAK"
	fileTypePDFA     = "PDFA"
	variantFormArkiv = "ARKIV"
	settlementPrefix = "Sykepenger behandlet, "
	annulmentPrefix  = "Utbetaling annullert "
	periodSeparator  = ", "
)

// ArchiveRequest is the journal post sent to the document archive.
type ArchiveRequest struct {
	Title           string            `json:"tittel"`
	JournalPostType string            `json:"journalpostType"`
	Theme           string            `json:"tema"`
	BehaviourTheme  string            `json:"behandlingstema"`
	JournalUnit     string            `json:"journalfoerendeEnhet"`
	Subject         Subject           `json:"bruker"`
	Case            Case              `json:"sak"`
	Documents       []ArchiveDocument `json:"dokumenter"`
}

type Subject struct {
	ID     string `json:"id"`
	IDType string `json:"idType"`
}

type Case struct {
	CaseType string `json:"sakstype"`
}

type ArchiveDocument struct {
	Title    string    `json:"tittel"`
	Variants []Variant `json:"dokumentvarianter"`
}

type Variant struct {
	FileType      string `json:"filtype"`
	Document      string `json:"fysiskDokument"`
	VariantFormat string `json:"variantformat"`
}

func SettlementArchive(s settlement.Settlement, document []byte) ArchiveRequest {
	return newArchiveRequest(SettlementTitle, s.PersonID, SettlementDocumentTitle(s), document)
}

func AnnulmentArchive(a settlement.Annulment, document []byte) ArchiveRequest {
	return newArchiveRequest(AnnulmentTitle, a.PersonID, AnnulmentDocumentTitle(a), document)
}

// SettlementDocumentTitle lists every payout line period, or the event
// period when there are no lines.
func SettlementDocumentTitle(s settlement.Settlement) string {
	periods := make([]string, 0, len(s.Disbursement.PayoutLines))
	for _, line := range s.Disbursement.PayoutLines {
		periods = append(periods, period(line.From, line.To))
	}
	if len(periods) == 0 {
		periods = append(periods, period(s.PeriodFrom, s.PeriodTo))
	}
	return settlementPrefix + strings.Join(periods, periodSeparator)
}

func AnnulmentDocumentTitle(a settlement.Annulment) string {
	return annulmentPrefix + period(a.PeriodFrom, a.PeriodTo)
}

func period(from, to types.Date) string {
	return fmt.Sprintf("%s - %s", from.Display(), to.Display())
}

func newArchiveRequest(title, personID, documentTitle string, document []byte) ArchiveRequest {
	return ArchiveRequest{
		Title:           title,
		JournalPostType: journalPostType,
		Theme:           theme,
		BehaviourTheme:  behaviourTheme,
		JournalUnit:     journalUnit,
		Subject:         Subject{ID: personID, IDType: subjectIDType},
		Case:            Case{CaseType: caseType},
		Documents: []ArchiveDocument{{
			Title: documentTitle,
			Variants: []Variant{{
				FileType:      fileTypePDFA,
				Document:      base64.StdEncoding.EncodeToString(document),
				VariantFormat: variantFormArkiv,
			}},
		}},
	}
}
