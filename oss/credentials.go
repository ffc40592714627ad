// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import "fmt"

// KeyId is an access key id. It is opaque but printable.
type KeyId string

// ParseKeyId requires non-empty printable ASCII.
func ParseKeyId(s string) (KeyId, error) {
	if len(s) == 0 {
		return "", &ValidationError{Kind: "key id", Value: s, Reason: "empty"}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return "", &ValidationError{Kind: "key id", Value: s, Reason: "must be printable ASCII"}
		}
	}
	return KeyId(s), nil
}

// KeySecret holds the access key secret. It never renders its contents:
// String, GoString and Format all redact, so the secret cannot leak through
// logging or %v/%#v formatting.
type KeySecret struct {
	inner string
}

// ParseKeySecret requires non-empty printable ASCII. An empty secret would
// produce a signature the server always rejects, so it is refused here
// rather than at sign time.
func ParseKeySecret(s string) (KeySecret, error) {
	if len(s) == 0 {
		return KeySecret{}, &ValidationError{Kind: "key secret", Value: "", Reason: "empty"}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return KeySecret{}, &ValidationError{Kind: "key secret", Value: "<redacted>", Reason: "must be printable ASCII"}
		}
	}
	return KeySecret{inner: s}, nil
}

func (KeySecret) String() string   { return "<redacted>" }
func (KeySecret) GoString() string { return "oss.KeySecret{<redacted>}" }

func (s KeySecret) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, "<redacted>")
}

// reveal is the single accessor to the raw secret; only the signer calls it.
func (s KeySecret) reveal() string { return s.inner }
