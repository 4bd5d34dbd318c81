package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateAddDaysCrossesMonthBoundary(t *testing.T) {
	got := NewDate(2020, time.May, 31).AddDays(1)
	if !got.Equal(NewDate(2020, time.June, 1)) {
		t.Fatalf("expected 2020-06-01, got %s", got)
	}
}

func TestDateDisplay(t *testing.T) {
	if got := MustParseDate("2020-05-11").Display(); got != "11.05.2020" {
		t.Fatalf("unexpected display %q", got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		From Date  `json:"from"`
		Max  *Date `json:"max"`
	}

	data, err := json.Marshal(payload{From: NewDate(2020, time.January, 2)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"from":"2020-01-02","max":null}` {
		t.Fatalf("unexpected json %s", data)
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"from":"2020-05-30","max":null}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.From.String() != "2020-05-30" || got.Max != nil {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestParseDateRejectsTimestamp(t *testing.T) {
	if _, err := ParseDate("2020-05-04T11:26:47"); err == nil {
		t.Fatal("expected error for timestamp input")
	}
}
