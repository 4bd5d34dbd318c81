package validators

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
)

// MaxBatchBytes caps a replay request body.
const MaxBatchBytes = 32 << 20

// DecodeJSONArray reads a JSON array body and returns each element undecoded.
// Anything other than an array is a VALIDATION_ERROR.
func DecodeJSONArray(w http.ResponseWriter, r *http.Request) ([][]byte, error) {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBatchBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").WithDetails(map[string]any{"limit": tooLarge.Limit})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body must be a JSON array")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}

	items := make([][]byte, len(raw))
	for i, item := range raw {
		items[i] = []byte(item)
	}
	return items, nil
}
