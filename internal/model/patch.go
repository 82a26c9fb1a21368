package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Patch is a partial section record: top-level field name to its new value.
// Arrays inside a patch replace the stored array wholesale.
type Patch map[string]json.RawMessage

func NewPatch(fields map[string]any) (Patch, error) {
	patch := make(Patch, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", k, err)
		}
		patch[k] = raw
	}
	return patch, nil
}

// ApplyPatch shallow-merges patch into the section pointed to by target.
// Struct sections reject keys that are not fields. For shapes every key is an
// overlay id and a null value removes the override.
func ApplyPatch(target any, patch Patch) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("patch target must be a non-nil pointer")
	}
	_, isShapes := target.(*Shapes)

	current, err := json.Marshal(target)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(current, &fields); err != nil {
		return err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}

	for key, value := range patch {
		if isShapes {
			if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
				delete(fields, key)
				continue
			}
		} else if _, ok := fields[key]; !ok {
			return fmt.Errorf("unknown field %q", key)
		}
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	fresh := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(merged, fresh.Interface()); err != nil {
		return fmt.Errorf("decode section: %w", err)
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}
