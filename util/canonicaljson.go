// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// CanonicalJSON encodes v as compact JSON with all object keys sorted
// recursively. Two values that are structurally equal always produce the
// same bytes, regardless of map iteration order or struct field order.
// Consensus hashing and transaction signing both build on this encoding,
// so it must never change.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't marshal value for canonical encoding")
	}

	// Round-trip through json.Number so integer digits survive untouched.
	// Nanosecond timestamps and signature integers do not fit in a float64.
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "couldn't decode intermediate JSON document")
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")

	case bool:
		if value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}

	case json.Number:
		buf.WriteString(value.String())

	case string:
		encoded, err := json.Marshal(value)
		if err != nil {
			return errors.Wrap(err, "couldn't encode string")
		}
		buf.Write(encoded)

	case []interface{}:
		buf.WriteByte('[')
		for i, element := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, element); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return errors.Wrap(err, "couldn't encode object key")
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			if err := writeCanonical(buf, value[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	default:
		return errors.Errorf("unsupported value of type %T in canonical JSON", v)
	}
	return nil
}
