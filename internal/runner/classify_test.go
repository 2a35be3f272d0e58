package runner

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBodyConcatenatedFrames(t *testing.T) {
	msg := base64.StdEncoding.EncodeToString([]byte("\x00\x00\x00\x00\x0aBought 1"))
	trailer := base64.StdEncoding.EncodeToString([]byte("\x80\x00\x00\x00\x0fgrpc-status:0\r\n"))

	out, err := DecodeBody(msg + trailer)
	require.NoError(t, err)
	assert.Contains(t, out, "Bought 1")
	assert.Contains(t, out, "grpc-status:0")
}

func TestDecodeBodyIgnoresWhitespace(t *testing.T) {
	out, err := DecodeBody("  " + encode("hello") + "\n")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestDecodeBodyEmpty(t *testing.T) {
	out, err := DecodeBody("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    OutcomeKind
		matched bool
	}{
		{"matched", encode("order Bought"), OutcomeMatched, true},
		{"no match", encode("insufficient balance"), OutcomeNoMatch, false},
		{"invalid", "{error}", OutcomeDecodeError, false},
		{"invalid with marker", "Bought?", OutcomeDecodeError, true},
		{"marker only after decode", encode("xBoughtx"), OutcomeMatched, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Classify(tt.body)
			assert.Equal(t, tt.kind, o.Kind)
			assert.Equal(t, tt.matched, o.Matched)
			assert.Equal(t, tt.body, o.Raw)
			if tt.kind == OutcomeDecodeError {
				assert.ErrorIs(t, o.Err, ErrDecode)
			}
		})
	}
}
