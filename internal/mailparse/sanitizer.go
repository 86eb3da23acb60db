package mailparse

import (
	"errors"
	"strings"
)

// ErrReplyTooShort indicates that stripping quoted content left nothing
// worth recording.
var ErrReplyTooShort = errors.New("reply content too short")

const minReplyLength = 10

// CleanReply strips quoted-reply noise from a raw email body, keeping only
// the lines before the first quote marker. The operation is idempotent:
// already-clean text passes through unchanged.
func CleanReply(rawBody string) (string, error) {
	var kept []string
	for _, line := range strings.Split(rawBody, "\n") {
		if isQuoteMarker(line) {
			break
		}
		kept = append(kept, line)
	}
	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))
	if len(cleaned) < minReplyLength {
		return "", ErrReplyTooShort
	}
	return cleaned, nil
}

// isQuoteMarker recognizes the separators mail clients insert above quoted
// history: "On ... wrote:" attribution lines, Outlook-style "From:/Sent:"
// headers, "> " quoting, the classic "-----Original Message-----" divider,
// and long underscore rules.
func isQuoteMarker(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.Contains(line, "On ") && strings.Contains(line, " wrote:"):
		return true
	case strings.Contains(line, "From:") && strings.Contains(line, "Sent:"):
		return true
	case strings.HasPrefix(trimmed, ">"):
		return true
	case strings.Contains(line, "-----Original Message-----"):
		return true
	case strings.Contains(line, "________________________________"):
		return true
	}
	return false
}
