package contract

import (
	"bytes"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var validate = validator.New()

// dateTimeLayouts are tried in order; upstream producers emit zone-less
// local timestamps as well as RFC 3339.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

type check func(value any) string

type field struct {
	key      string
	required bool
	check    check
	items    *Contract
	nonEmpty bool
}

// Contract declares the fields an event must (or may) carry. Build it once
// with the Require and InterestedIn methods and reuse it for every event.
type Contract struct {
	kind   string
	fields []field
}

func New(kind string) *Contract {
	return &Contract{kind: kind}
}

func (c *Contract) Kind() string {
	return c.kind
}

func (c *Contract) add(keys []string, required bool, fn check) *Contract {
	for _, key := range keys {
		c.fields = append(c.fields, field{key: key, required: required, check: fn})
	}
	return c
}

// RequireValue requires key to be the exact string expected.
func (c *Contract) RequireValue(key, expected string) *Contract {
	return c.add([]string{key}, true, func(value any) string {
		if s, ok := value.(string); ok && s == expected {
			return ""
		}
		return fmt.Sprintf("must be %q", expected)
	})
}

// RequireKey requires each key to hold a string.
func (c *Contract) RequireKey(keys ...string) *Contract {
	return c.add(keys, true, checkString)
}

func (c *Contract) RequireUUID(keys ...string) *Contract {
	return c.add(keys, true, checkUUID)
}

func (c *Contract) RequireInt(keys ...string) *Contract {
	return c.add(keys, true, checkInt)
}

func (c *Contract) RequireNumber(keys ...string) *Contract {
	return c.add(keys, true, checkNumber)
}

func (c *Contract) RequireBool(keys ...string) *Contract {
	return c.add(keys, true, checkBool)
}

func (c *Contract) RequireDate(keys ...string) *Contract {
	return c.add(keys, true, checkDate)
}

func (c *Contract) RequireDateTime(keys ...string) *Contract {
	return c.add(keys, true, checkDateTime)
}

// InterestedInDate accepts absent keys but rejects present values that are
// not calendar dates.
func (c *Contract) InterestedInDate(keys ...string) *Contract {
	return c.add(keys, false, checkDate)
}

// RequireArray requires key to be an array whose elements all satisfy the
// contract built by items.
func (c *Contract) RequireArray(key string, items func(*Contract)) *Contract {
	return c.addArray(key, true, false, items)
}

// RequireNonEmptyArray is RequireArray with at least one element.
func (c *Contract) RequireNonEmptyArray(key string, items func(*Contract)) *Contract {
	return c.addArray(key, true, true, items)
}

// InterestedInArray validates the elements of key when it is present.
func (c *Contract) InterestedInArray(key string, items func(*Contract)) *Contract {
	return c.addArray(key, false, false, items)
}

func (c *Contract) addArray(key string, required, nonEmpty bool, items func(*Contract)) *Contract {
	nested := New(c.kind)
	if items != nil {
		items(nested)
	}
	c.fields = append(c.fields, field{key: key, required: required, items: nested, nonEmpty: nonEmpty})
	return c
}

// Validate decodes raw and checks it against the contract. Every violation
// is collected; the returned error is CONTRACT_VIOLATION with the
// violations as details.
func (c *Contract) Validate(raw []byte) (*View, error) {
	doc, err := decode(raw)
	if err != nil {
		violations := []Violation{{Field: "$", Problem: "must be a JSON object"}}
		return nil, pkgerrors.Wrap(pkgerrors.CodeContractViolation, err, fmt.Sprintf("%s event does not match contract", c.kind)).WithDetails(violations)
	}

	var errs error
	c.checkObject(doc, "", &errs)
	if errs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeContractViolation, errs, fmt.Sprintf("%s event does not match contract", c.kind)).WithDetails(collect(errs))
	}
	return &View{fields: doc}, nil
}

func (c *Contract) checkObject(obj map[string]any, prefix string, errs *error) {
	for _, f := range c.fields {
		path := joinPath(prefix, f.key)
		value, present := obj[f.key]
		if !present || value == nil {
			if f.required {
				*errs = multierr.Append(*errs, Violation{Field: path, Problem: "is required"})
			}
			continue
		}

		if f.check != nil {
			if problem := f.check(value); problem != "" {
				*errs = multierr.Append(*errs, Violation{Field: path, Problem: problem})
			}
			continue
		}

		items, ok := value.([]any)
		if !ok {
			*errs = multierr.Append(*errs, Violation{Field: path, Problem: "must be an array"})
			continue
		}
		if f.nonEmpty && len(items) == 0 {
			*errs = multierr.Append(*errs, Violation{Field: path, Problem: "must not be empty"})
		}
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			nested, ok := item.(map[string]any)
			if !ok {
				*errs = multierr.Append(*errs, Violation{Field: itemPath, Problem: "must be an object"})
				continue
			}
			f.items.checkObject(nested, itemPath, errs)
		}
	}
}

func decode(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document is null")
	}
	return doc, nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func checkString(value any) string {
	if _, ok := value.(string); ok {
		return ""
	}
	return "must be a string"
}

func checkUUID(value any) string {
	s, ok := value.(string)
	if !ok || validate.Var(s, "uuid") != nil {
		return "must be a UUID"
	}
	return ""
}

func checkInt(value any) string {
	n, ok := value.(json.Number)
	if !ok {
		return "must be an integer"
	}
	if _, err := n.Int64(); err != nil {
		return "must be an integer"
	}
	return ""
}

func checkNumber(value any) string {
	n, ok := value.(json.Number)
	if !ok {
		return "must be a number"
	}
	if _, err := decimal.NewFromString(n.String()); err != nil {
		return "must be a number"
	}
	return ""
}

func checkBool(value any) string {
	if _, ok := value.(bool); ok {
		return ""
	}
	return "must be a boolean"
}

func checkDate(value any) string {
	s, ok := value.(string)
	if !ok || validate.Var(s, "datetime=2006-01-02") != nil {
		return "must be a date (YYYY-MM-DD)"
	}
	return ""
}

func checkDateTime(value any) string {
	s, ok := value.(string)
	if !ok {
		return "must be a date-time"
	}
	if _, err := parseDateTime(s); err != nil {
		return "must be a date-time"
	}
	return ""
}

func parseDateTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
