package service

import (
	"fmt"

	"github.com/spec-kit/ticket-mailroom/internal/mailparse"
)

// Outbound subjects carry the ticket reference verbatim so that any human
// reply brings it back for correlation.

func confirmationSubject(reference string) string {
	return mailparse.SubjectWithReference("We received your support request", reference)
}

func replySubject(reference string) string {
	return mailparse.SubjectWithReference("New reply to your support request", reference)
}

func resolutionSubject(reference string) string {
	return mailparse.SubjectWithReference("Your support request has been resolved", reference)
}

func ticketConfirmationHTML(name, title, reference string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>We received your support request <strong>%s</strong>.</p>
<p>Your ticket number is <strong>%s</strong>. Reply to this email to add to the conversation; please keep the ticket number in the subject line.</p>
<p>The Support Team</p>`, name, title, reference)
}

func adminReplyHTML(name, title, body, reference string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>There is a new reply on your support request <strong>%s</strong> (%s):</p>
<blockquote>%s</blockquote>
<p>Reply to this email to continue the conversation.</p>
<p>The Support Team</p>`, name, title, reference, body)
}

func resolutionHTML(name, title, reference string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Your support request <strong>%s</strong> (%s) has been marked as resolved.</p>
<p>If the issue is not fixed for you, just reply to this email and the ticket will reopen.</p>
<p>The Support Team</p>`, name, title, reference)
}

func feedbackConfirmationHTML(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for taking the time to share your feedback. We read every message.</p>
<p>The Support Team</p>`, name)
}

func feedbackNotificationHTML(name, email, message string) string {
	return fmt.Sprintf(`<p>New feedback from %s (%s):</p>
<blockquote>%s</blockquote>`, name, email, message)
}
