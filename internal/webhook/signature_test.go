// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package webhook

import "testing"

func TestValidateSignature(t *testing.T) {
	payload := []byte(`{"action":"completed","workflow_run":{"id":1}}`)
	// echo -n '{"action":"completed","workflow_run":{"id":1}}' | openssl dgst -sha256 -hmac 'test-secret'
	const valid = "sha256=b78be32339035d58014b2a287c14541e2a48c3e3876b23e38ab2535e293f2e64"

	tests := []struct {
		name      string
		secret    string
		signature string
		want      bool
	}{
		{"valid signature", "test-secret", valid, true},
		{"wrong secret", "other-secret", valid, false},
		{"zeroed digest", "test-secret", "sha256=0000000000000000000000000000000000000000000000000000000000000000", false},
		{"missing signature", "test-secret", "", false},
		{"sha1 algorithm", "test-secret", "sha1=b78be32339035d58014b2a287c14541e2a48c3e3", false},
		{"not hex", "test-secret", "sha256=zz", false},
		{"empty secret", "", valid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSignature(payload, tt.signature, tt.secret); got != tt.want {
				t.Errorf("ValidateSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSign(t *testing.T) {
	payload := []byte(`{"action":"completed","workflow_run":{"id":1}}`)

	if got := Sign(payload, "test-secret"); got != "sha256=b78be32339035d58014b2a287c14541e2a48c3e3876b23e38ab2535e293f2e64" {
		t.Errorf("Sign() = %s", got)
	}
	if !ValidateSignature(payload, Sign(payload, "s3cret"), "s3cret") {
		t.Error("ValidateSignature rejects a payload signed by Sign")
	}
}
