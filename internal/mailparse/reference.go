package mailparse

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
)

// Ticket references look like TT-8F3K2A-09ZQXB. They travel verbatim in
// outbound subject lines, optionally bracket-wrapped, and come back
// unmodified in reply subjects.
var referencePattern = regexp.MustCompile(`(?i)TT-[A-Z0-9]+-[A-Z0-9]+`)

// ErrNoReference indicates a subject line without a ticket reference.
var ErrNoReference = errors.New("no ticket reference in subject")

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ExtractReference returns the first ticket reference found in a subject
// line, normalized to upper case. The match is purely syntactic; whether
// the ticket exists is the caller's concern.
func ExtractReference(subject string) (string, error) {
	match := referencePattern.FindString(subject)
	if match == "" {
		return "", ErrNoReference
	}
	return strings.ToUpper(match), nil
}

// NewReference generates a fresh ticket reference from crypto/rand.
func NewReference() string {
	return "TT-" + randomToken(6) + "-" + randomToken(6)
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(out)
}

// SubjectWithReference builds an outbound subject line carrying the ticket
// reference in the bracketed form replies preserve.
func SubjectWithReference(prefix, reference string) string {
	return prefix + " [" + reference + "]"
}
