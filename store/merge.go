package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Fields is a partial record keyed by JSON field name. Update replaces each
// named top-level field and leaves every other field as it was.
type Fields map[string]any

const (
	fieldID        = "id"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// zeroTimeJSON is how encoding/json writes time.Time{}.
var zeroTimeJSON = []byte(`"0001-01-01T00:00:00Z"`)

// patch round-trips rec through its JSON form, replacing the top-level keys
// in fields and then letting touch adjust the document. Unknown keys are
// rejected, and so are keys that name a field in the wrong case.
func patch[T any](rec T, fields Fields, touch func(doc map[string]json.RawMessage) error) (T, error) {
	var zero T

	base, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("encode record: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(base, &doc); err != nil {
		return zero, fmt.Errorf("record is not a JSON object: %w", err)
	}

	for k := range fields {
		if err := checkFieldCase(doc, k); err != nil {
			return zero, err
		}
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("%w: field %q: %v", ErrValidation, k, err)
		}
		doc[k] = raw
	}
	if touch != nil {
		if err := touch(doc); err != nil {
			return zero, err
		}
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("encode merged record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	var out T
	if err := dec.Decode(&out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return out, nil
}

// checkFieldCase fails when key is not a field of doc but differs from one
// only in case. Decoding matches names case-insensitively, so such a key
// would lose to the existing field.
func checkFieldCase(doc map[string]json.RawMessage, key string) error {
	if _, ok := doc[key]; ok {
		return nil
	}
	for name := range doc {
		if strings.EqualFold(name, key) {
			return fmt.Errorf("%w: field %q is spelled %q", ErrValidation, key, name)
		}
	}
	return nil
}

// stampNew fills zero creation and update times with now.
func stampNew(now time.Time) func(map[string]json.RawMessage) error {
	return func(doc map[string]json.RawMessage) error {
		ts, err := json.Marshal(now)
		if err != nil {
			return err
		}
		for _, k := range []string{fieldCreatedAt, fieldUpdatedAt} {
			if v, ok := doc[k]; ok && bytes.Equal(v, zeroTimeJSON) {
				doc[k] = ts
			}
		}
		return nil
	}
}

// stampUpdate moves the update time to now unless fields set it.
func stampUpdate(now time.Time, fields Fields) func(map[string]json.RawMessage) error {
	return func(doc map[string]json.RawMessage) error {
		if _, explicit := fields[fieldUpdatedAt]; explicit {
			return nil
		}
		if _, ok := doc[fieldUpdatedAt]; !ok {
			return nil
		}
		ts, err := json.Marshal(now)
		if err != nil {
			return err
		}
		doc[fieldUpdatedAt] = ts
		return nil
	}
}
