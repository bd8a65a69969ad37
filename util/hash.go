// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash returns the lowercase hex SHA-256 digest of the given arguments.
// Each argument is canonically JSON encoded, the encoded strings are sorted
// lexicographically and concatenated, and the result is hashed. The sorting
// step makes the digest independent of argument order, which every node in
// the network relies on when recomputing block hashes.
func Hash(args ...interface{}) string {
	stringified := make([]string, 0, len(args))
	for _, arg := range args {
		encoded, err := CanonicalJSON(arg)
		if err != nil {
			// Only unencodable Go values can end up here, which is a
			// programming error rather than a runtime condition.
			panic(err)
		}
		stringified = append(stringified, string(encoded))
	}
	sort.Strings(stringified)

	digest := sha256.Sum256([]byte(strings.Join(stringified, "")))
	return hex.EncodeToString(digest[:])
}
