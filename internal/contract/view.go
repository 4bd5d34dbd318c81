package contract

import (
	"time"

	"github.com/angelmondragon/settlement-archiver/pkg/types"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// View is a validated event. Accessors return zero values for keys the
// contract did not declare or that were absent and optional.
type View struct {
	fields map[string]any
}

func (v *View) Has(key string) bool {
	if v == nil {
		return false
	}
	value, ok := v.fields[key]
	return ok && value != nil
}

func (v *View) String(key string) string {
	if v == nil {
		return ""
	}
	s, _ := v.fields[key].(string)
	return s
}

func (v *View) Int(key string) int {
	if v == nil {
		return 0
	}
	n, ok := v.fields[key].(json.Number)
	if !ok {
		return 0
	}
	i, err := n.Int64()
	if err != nil {
		return 0
	}
	return int(i)
}

func (v *View) Decimal(key string) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	n, ok := v.fields[key].(json.Number)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (v *View) Bool(key string) bool {
	if v == nil {
		return false
	}
	b, _ := v.fields[key].(bool)
	return b
}

func (v *View) UUID(key string) uuid.UUID {
	id, err := uuid.Parse(v.String(key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (v *View) Date(key string) types.Date {
	d, err := types.ParseDate(v.String(key))
	if err != nil {
		return types.Date{}
	}
	return d
}

// OptionalDate returns nil when key is absent.
func (v *View) OptionalDate(key string) *types.Date {
	if !v.Has(key) {
		return nil
	}
	d := v.Date(key)
	return &d
}

func (v *View) DateTime(key string) time.Time {
	t, err := parseDateTime(v.String(key))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Array returns one view per object element of key.
func (v *View) Array(key string) []*View {
	if v == nil {
		return nil
	}
	items, _ := v.fields[key].([]any)
	out := make([]*View, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, &View{fields: obj})
		}
	}
	return out
}
