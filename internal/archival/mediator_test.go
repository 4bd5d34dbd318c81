package archival

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/settlement-archiver/internal/documents"
	"github.com/angelmondragon/settlement-archiver/internal/settlement"
	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
	"github.com/angelmondragon/settlement-archiver/pkg/types"
	"github.com/google/uuid"
)

const personID = "12345678910"

func sampleSettlement() settlement.Settlement {
	rate := 1431
	return settlement.Settlement{
		EventID:    uuid.MustParse("e8eb9ffa-57b7-4fe0-b44c-471b2b306bb6"),
		CreatedAt:  time.Date(2020, 5, 4, 11, 26, 30, 0, time.UTC),
		PersonID:   personID,
		ActorID:    "1000000000001",
		PeriodFrom: types.MustParseDate("2020-05-11"),
		PeriodTo:   types.MustParseDate("2020-05-30"),
		Disbursement: settlement.Disbursement{
			CaseSystemID: "WKOZJT3JYNB3VNT5CE5U54R3Y4",
			PayoutLines: []settlement.PayoutLine{
				{From: types.MustParseDate("2020-05-11"), To: types.MustParseDate("2020-05-30"), GradePercent: 100, Amount: 1431, DailyRate: &rate},
			},
		},
	}
}

func newTestMediator(t *testing.T, r Renderer, a Archiver) (*Mediator, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, secure bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &out, SecureOutput: &secure})
	m, err := NewMediator(MediatorParams{Renderer: r, Archiver: a, Logger: logg})
	if err != nil {
		t.Fatalf("NewMediator: %v", err)
	}
	return m, &out, &secure
}

func TestProcessSettlementRendersThenArchives(t *testing.T) {
	renderer := &fakeRenderer{document: []byte("%PDF")}
	archiver := &fakeArchiver{}
	m, out, _ := newTestMediator(t, renderer, archiver)

	if err := m.ProcessSettlement(context.Background(), sampleSettlement()); err != nil {
		t.Fatalf("ProcessSettlement: %v", err)
	}

	if len(renderer.calls) != 1 || renderer.calls[0].kind != documents.KindSettlement {
		t.Fatalf("unexpected render calls %+v", renderer.calls)
	}
	if len(archiver.calls) != 1 {
		t.Fatalf("expected one archive call, got %d", len(archiver.calls))
	}
	call := archiver.calls[0]
	if call.consumerToken != "e8eb9ffa-57b7-4fe0-b44c-471b2b306bb6" {
		t.Fatalf("unexpected consumer token %q", call.consumerToken)
	}
	req, ok := call.payload.(documents.ArchiveRequest)
	if !ok {
		t.Fatalf("unexpected archive payload %T", call.payload)
	}
	if req.Documents[0].Variants[0].Document != base64.StdEncoding.EncodeToString([]byte("%PDF")) {
		t.Fatalf("rendered document not embedded verbatim")
	}

	logs := out.String()
	if !strings.Contains(logs, `"actor_id":"1000000000001"`) || !strings.Contains(logs, `"case_system_id":"WKOZJT3JYNB3VNT5CE5U54R3Y4"`) {
		t.Fatalf("audit log missing identifiers: %s", logs)
	}
	if strings.Contains(logs, personID) {
		t.Fatalf("regular log leaked person id: %s", logs)
	}
}

func TestProcessRenderFailureSkipsArchive(t *testing.T) {
	cases := []struct {
		name     string
		renderer *fakeRenderer
	}{
		{name: "error", renderer: &fakeRenderer{err: errors.New("connection refused")}},
		{name: "empty document", renderer: &fakeRenderer{document: []byte{}}},
		{name: "typed error", renderer: &fakeRenderer{err: pkgerrors.New(pkgerrors.CodeRenderFailed, "status 500")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			archiver := &fakeArchiver{}
			m, _, secure := newTestMediator(t, tc.renderer, archiver)

			err := m.ProcessSettlement(context.Background(), sampleSettlement())
			if !pkgerrors.Is(err, pkgerrors.CodeRenderFailed) {
				t.Fatalf("expected RENDER_FAILED, got %v", err)
			}
			if len(archiver.calls) != 0 {
				t.Fatalf("archive must not be called after a failed render")
			}
			if !strings.Contains(secure.String(), personID) {
				t.Fatalf("secure log should carry the full record: %s", secure.String())
			}
			if Classify(err) != Transient {
				t.Fatalf("render failure should be transient")
			}
		})
	}
}

func TestProcessArchiveFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code pkgerrors.Code
	}{
		{name: "untyped", err: errors.New("EOF"), code: pkgerrors.CodeArchiveRejected},
		{name: "rejected", err: pkgerrors.New(pkgerrors.CodeArchiveRejected, "status 409"), code: pkgerrors.CodeArchiveRejected},
		{name: "token", err: pkgerrors.New(pkgerrors.CodeDependency, "sts down"), code: pkgerrors.CodeDependency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, _, _ := newTestMediator(t, &fakeRenderer{document: []byte("pdf")}, &fakeArchiver{err: tc.err})
			err := m.ProcessSettlement(context.Background(), sampleSettlement())
			if got := pkgerrors.CodeOf(err); got != tc.code {
				t.Fatalf("expected %s, got %s (%v)", tc.code, got, err)
			}
			if Classify(err) != Transient {
				t.Fatalf("archive failure should be transient")
			}
		})
	}
}

func TestProcessAnnulment(t *testing.T) {
	renderer := &fakeRenderer{document: []byte("pdf")}
	archiver := &fakeArchiver{}
	m, _, _ := newTestMediator(t, renderer, archiver)

	annulment := settlement.Annulment{
		EventID:      uuid.New(),
		PersonID:     personID,
		ActorID:      "1000000000001",
		CaseSystemID: "CASE",
		PeriodFrom:   types.MustParseDate("2020-05-11"),
		PeriodTo:     types.MustParseDate("2020-05-30"),
	}
	if err := m.ProcessAnnulment(context.Background(), annulment); err != nil {
		t.Fatalf("ProcessAnnulment: %v", err)
	}
	if renderer.calls[0].kind != documents.KindAnnulment {
		t.Fatalf("unexpected kind %q", renderer.calls[0].kind)
	}
	req := archiver.calls[0].payload.(documents.ArchiveRequest)
	if req.Title != documents.AnnulmentTitle {
		t.Fatalf("unexpected title %q", req.Title)
	}
	if archiver.calls[0].consumerToken != annulment.EventID.String() {
		t.Fatalf("unexpected consumer token")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Class
	}{
		{err: pkgerrors.New(pkgerrors.CodeContractViolation, "x"), want: Fatal},
		{err: pkgerrors.New(pkgerrors.CodeMapping, "x"), want: Fatal},
		{err: errors.New("nil pointer"), want: Fatal},
		{err: pkgerrors.New(pkgerrors.CodeInternal, "x"), want: Fatal},
		{err: pkgerrors.New(pkgerrors.CodeRenderFailed, "x"), want: Transient},
		{err: pkgerrors.New(pkgerrors.CodeArchiveRejected, "x"), want: Transient},
		{err: pkgerrors.New(pkgerrors.CodeDependency, "x"), want: Transient},
		{err: fmt.Errorf("wrapped: %w", pkgerrors.New(pkgerrors.CodeMapping, "x")), want: Fatal},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestNewMediatorValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	if _, err := NewMediator(MediatorParams{Archiver: &fakeArchiver{}, Logger: logg}); err == nil {
		t.Fatal("expected error without renderer")
	}
	if _, err := NewMediator(MediatorParams{Renderer: &fakeRenderer{}, Logger: logg}); err == nil {
		t.Fatal("expected error without archiver")
	}
	if _, err := NewMediator(MediatorParams{Renderer: &fakeRenderer{}, Archiver: &fakeArchiver{}}); err == nil {
		t.Fatal("expected error without logger")
	}
}
