package generate

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeDataURI returns data as a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI decodes a base64 data URI. Input without a "," separator is
// treated as bare base64.
func DecodeDataURI(s string) (mime string, data []byte, err error) {
	payload := s
	if head, rest, ok := strings.Cut(s, ","); ok {
		payload = rest
		mime = strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64")
	}
	data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("decode image data: %w", err)
	}
	return mime, data, nil
}
