// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"strings"
	"testing"
)

// TestHashArgumentOrder ensures the digest is independent of argument order,
// which block hashing relies on.
func TestHashArgumentOrder(t *testing.T) {
	first := Hash("foo", "two", 2)
	second := Hash(2, "two", "foo")
	if first != second {
		t.Errorf("hash differs under argument reordering: %s != %s", first, second)
	}

	if Hash("foo") == Hash("bar") {
		t.Errorf("distinct inputs produced the same hash")
	}
}

// TestHashShape ensures the digest is lowercase hex SHA-256.
func TestHashShape(t *testing.T) {
	digest := Hash("foo")
	if len(digest) != 64 {
		t.Fatalf("digest length: got %d, want 64", len(digest))
	}
	if digest != strings.ToLower(digest) {
		t.Errorf("digest is not lowercase: %s", digest)
	}
}

// TestCanonicalJSONKeyOrder ensures maps encode with sorted keys regardless
// of insertion order, and that structurally equal values produce identical
// bytes.
func TestCanonicalJSONKeyOrder(t *testing.T) {
	first := map[string]interface{}{
		"b": 2,
		"a": 1,
		"c": map[string]interface{}{"z": true, "y": "x"},
	}
	second := map[string]interface{}{
		"c": map[string]interface{}{"y": "x", "z": true},
		"a": 1,
		"b": 2,
	}

	encodedFirst, err := CanonicalJSON(first)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	encodedSecond, err := CanonicalJSON(second)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}

	if string(encodedFirst) != string(encodedSecond) {
		t.Errorf("canonical encodings differ:\n%s\n%s", encodedFirst, encodedSecond)
	}
	want := `{"a":1,"b":2,"c":{"y":"x","z":true}}`
	if string(encodedFirst) != want {
		t.Errorf("canonical encoding: got %s, want %s", encodedFirst, want)
	}
}

// TestCanonicalJSONLargeIntegers ensures nanosecond-scale integers survive
// the encoding with all digits intact.
func TestCanonicalJSONLargeIntegers(t *testing.T) {
	const timestamp = int64(1700000000123456789)
	encoded, err := CanonicalJSON(map[string]int64{"timestamp": timestamp})
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	want := `{"timestamp":1700000000123456789}`
	if string(encoded) != want {
		t.Errorf("got %s, want %s", encoded, want)
	}
}

// TestHexToBinary checks the bit expansion against hand-computed values.
func TestHexToBinary(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0000"},
		{"f", "1111"},
		{"0f", "00001111"},
		{"a5", "10100101"},
		{"F", "1111"},
		{"", ""},
	}
	for _, test := range tests {
		got, err := HexToBinary(test.in)
		if err != nil {
			t.Errorf("HexToBinary(%q): unexpected error %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("HexToBinary(%q): got %s, want %s", test.in, got, test.want)
		}
	}

	if _, err := HexToBinary("xyz"); err == nil {
		t.Errorf("HexToBinary accepted invalid input")
	}
}

// TestHexToBinaryLength ensures the expansion is always 4 bits per digit.
func TestHexToBinaryLength(t *testing.T) {
	const hash = "851bb72ca1f281eb45c6e10e10b04736939dd4a43e4003b6ae937790e2e5df3f"
	binary, err := HexToBinary(hash)
	if err != nil {
		t.Fatalf("HexToBinary: %v", err)
	}
	if len(binary) != 4*len(hash) {
		t.Errorf("binary length: got %d, want %d", len(binary), 4*len(hash))
	}
}
