package imap

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	"github.com/tilda-center/backend/internal/model"
)

// dateLayout renders header dates the way the API has always exposed them.
const dateLayout = "2006:01:02T15:04:05"

// parseMessage converts one raw RFC 822 message into an EMail carrying the
// given per-session sequence id. Parsing is best-effort: a message that
// go-message cannot read at all still yields an EMail with the raw bytes
// as body.
func parseMessage(id int, raw []byte) model.EMail {
	e := model.EMail{ID: id}

	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		e.Body = string(raw)
		return e
	}

	h := mail.Header{Header: entity.Header}
	e.MessageID = DecodeHeader(entity.Header, "Message-Id")
	e.Subject = DecodeHeader(entity.Header, "Subject")
	e.FromAddr = addressField(h, entity.Header, "From")
	e.To = addressField(h, entity.Header, "To")
	if t, err := h.Date(); err == nil && !t.IsZero() {
		e.Date = t.Format(dateLayout)
	}
	e.Body = textBody(entity)

	return e
}

// addressField renders an address header as `Name <addr>` entries joined
// by ", ". When the field does not parse as an address list, the decoded
// raw value is returned instead.
func addressField(h mail.Header, mh message.Header, field string) string {
	addrs, err := h.AddressList(field)
	if err != nil || len(addrs) == 0 {
		return DecodeHeader(mh, field)
	}

	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.Name, a.Address))
		} else {
			parts = append(parts, fmt.Sprintf("<%s>", a.Address))
		}
	}
	return strings.Join(parts, ", ")
}

// textBody extracts the message text: the first text/plain part, falling
// back to the first text part of any kind. Attachments and non-text parts
// are skipped.
func textBody(entity *message.Entity) string {
	plain, other := collectText(entity)
	if plain != "" {
		return plain
	}
	return other
}

func collectText(entity *message.Entity) (plain, other string) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF || (err != nil && !message.IsUnknownCharset(err)) {
				break
			}
			p, o := collectText(part)
			if plain == "" {
				plain = p
			}
			if other == "" {
				other = o
			}
			if plain != "" {
				break
			}
		}
		return plain, other
	}

	ctype, _, _ := entity.Header.ContentType()
	if !strings.HasPrefix(ctype, "text/") {
		return "", ""
	}
	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", ""
	}
	if ctype == "text/plain" {
		return string(body), ""
	}
	return "", string(body)
}
