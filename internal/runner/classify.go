package runner

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrDecode = errors.New("response is not valid grpc-web-text")

// DecodeBody decodes a grpc-web-text body. The server may concatenate
// several padded base64 frames (message then trailers), so each padded
// segment is decoded on its own.
func DecodeBody(raw string) (string, error) {
	s := strings.Join(strings.Fields(raw), "")

	var out []byte
	for len(s) > 0 {
		n := frameEnd(s)
		b, err := base64.StdEncoding.DecodeString(s[:n])
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		out = append(out, b...)
		s = s[n:]
	}
	return string(out), nil
}

// frameEnd returns the length of the first base64 segment in s, including
// its trailing padding.
func frameEnd(s string) int {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return len(s)
	}
	for i < len(s) && s[i] == '=' {
		i++
	}
	return i
}

// Classify turns a response body into an outcome. The returned Outcome has
// no timing or transport fields set.
func Classify(body string) Outcome {
	decoded, err := DecodeBody(body)
	if err != nil {
		return Outcome{
			Kind:    OutcomeDecodeError,
			Matched: strings.Contains(body, SuccessMarker),
			Raw:     body,
			Err:     err,
		}
	}

	o := Outcome{Kind: OutcomeNoMatch, Raw: body, Decoded: decoded}
	if strings.Contains(decoded, SuccessMarker) {
		o.Kind = OutcomeMatched
		o.Matched = true
	}
	return o
}
