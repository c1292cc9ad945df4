package imap

import (
	"mime"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
)

// headerDecoder decodes RFC 2047 encoded words. One header value may mix
// several chunks with different character encodings; each chunk decodes
// with its own tagged charset (through the go-message charset registry)
// and the results concatenate in order with no separator.
var headerDecoder = mime.WordDecoder{CharsetReader: charset.Reader}

// DecodeHeader returns the decoded value of the named header field. A
// missing field yields the empty string, never an error. A value with no
// encoded words passes through unchanged, and an undecodable value falls
// back to its raw text.
func DecodeHeader(h message.Header, field string) string {
	raw := h.Get(field)
	if raw == "" {
		return ""
	}
	decoded, err := headerDecoder.DecodeHeader(raw)
	if err != nil {
		return raw
	}
	return decoded
}
