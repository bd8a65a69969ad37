// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"strings"

	"github.com/pkg/errors"
)

var nibbleBits = map[byte]string{
	'0': "0000", '1': "0001", '2': "0010", '3': "0011",
	'4': "0100", '5': "0101", '6': "0110", '7': "0111",
	'8': "1000", '9': "1001", 'a': "1010", 'b': "1011",
	'c': "1100", 'd': "1101", 'e': "1110", 'f': "1111",
}

// HexToBinary expands a hex string into its zero-padded binary form, four
// bits per hex digit. Proof-of-work difficulty counts leading zero bits of
// a block hash in exactly this representation.
func HexToBinary(hexString string) (string, error) {
	var builder strings.Builder
	builder.Grow(len(hexString) * 4)
	for i := 0; i < len(hexString); i++ {
		c := hexString[i]
		if c >= 'A' && c <= 'F' {
			c += 'a' - 'A'
		}
		bits, ok := nibbleBits[c]
		if !ok {
			return "", errors.Errorf("invalid hex character %q at index %d", hexString[i], i)
		}
		builder.WriteString(bits)
	}
	return builder.String(), nil
}
