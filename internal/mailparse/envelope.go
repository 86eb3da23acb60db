package mailparse

import (
	"bytes"
	"io"
	stdmail "net/mail"
	"strings"

	"github.com/emersion/go-message/mail"
)

// Envelope is the channel-independent shape of one inbound email.
type Envelope struct {
	From      string
	Subject   string
	Text      string
	HTML      string
	MessageID string
}

const maxBodyBytes = 256 * 1024

// ParseEnvelope decodes a raw RFC822 message into an Envelope. Structured
// MIME parsing is attempted first; messages that go-message rejects fall
// back to a plain net/mail parse so a malformed reply still reaches the
// correlator.
func ParseEnvelope(raw []byte) Envelope {
	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return legacyEnvelope(raw)
	}
	defer reader.Close()

	var env Envelope
	env.Subject, _ = reader.Header.Subject()
	if addrs, err := reader.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		env.From = addrs[0].Address
	}
	if id, err := reader.Header.MessageID(); err == nil {
		env.MessageID = id
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}
		body, err := io.ReadAll(io.LimitReader(part.Body, maxBodyBytes))
		if err != nil {
			continue
		}
		switch contentType {
		case "text/plain":
			if env.Text == "" {
				env.Text = string(body)
			}
		case "text/html":
			if env.HTML == "" {
				env.HTML = string(body)
			}
		}
	}

	if env.Text == "" && env.HTML == "" {
		legacy := legacyEnvelope(raw)
		env.Text = legacy.Text
	}
	return env
}

func legacyEnvelope(raw []byte) Envelope {
	var env Envelope
	msg, err := stdmail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		env.Text = string(raw)
		return env
	}
	env.Subject = msg.Header.Get("Subject")
	env.From = NormalizeAddress(msg.Header.Get("From"))
	env.MessageID = strings.Trim(msg.Header.Get("Message-Id"), "<>")
	body, err := io.ReadAll(io.LimitReader(msg.Body, maxBodyBytes))
	if err == nil {
		env.Text = string(body)
	}
	return env
}

// NormalizeAddress reduces a From header to its lower-cased bare address,
// stripping any display name. Inputs that do not parse are lower-cased and
// trimmed as-is.
func NormalizeAddress(from string) string {
	addr, err := stdmail.ParseAddress(from)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(from))
	}
	return strings.ToLower(addr.Address)
}

// PreferredBody picks the plain-text body when present, falling back to the
// HTML part for clients that send HTML only.
func (e Envelope) PreferredBody() string {
	if strings.TrimSpace(e.Text) != "" {
		return e.Text
	}
	return e.HTML
}
