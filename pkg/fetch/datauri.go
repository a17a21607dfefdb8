package fetch

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// IsDataURI reports whether s is an RFC 2397 data: URI
func IsDataURI(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// ParseDataURI decodes a data: URI into its media type and payload.
// A missing media type defaults to text/plain.
func ParseDataURI(s string) (string, []byte, error) {
	if !IsDataURI(s) {
		return "", nil, errors.New("not a data URI")
	}

	header, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return "", nil, errors.New("malformed data URI: missing comma")
	}

	isBase64 := false
	params := strings.Split(header, ";")
	if n := len(params); n > 0 && strings.EqualFold(strings.TrimSpace(params[n-1]), "base64") {
		isBase64 = true
		params = params[:n-1]
	}

	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if len(params) > 1 {
		mediaType += ";" + strings.Join(params[1:], ";")
	}

	if isBase64 {
		// whitespace and percent-escapes are tolerated inside base64 payloads
		clean, err := url.PathUnescape(payload)
		if err != nil {
			clean = payload
		}
		clean = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, clean)

		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(clean, "="))
			if err != nil {
				return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
			}
		}
		return mediaType, data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid percent-encoded payload: %w", err)
	}
	return mediaType, []byte(data), nil
}
