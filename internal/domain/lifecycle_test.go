package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"open", "in_progress", "resolved", "closed"} {
		status, err := ParseStatus(raw)
		require.NoError(t, err)
		require.Equal(t, TicketStatus(raw), status)
	}
}

func TestParseStatusRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "OPEN", "deleted", "awaiting_response", "reopened"} {
		_, err := ParseStatus(raw)
		require.Error(t, err, "raw %q", raw)
	}
}

func TestTerminalStatus(t *testing.T) {
	require.True(t, TicketStatusClosed.IsTerminal())
	require.False(t, TicketStatusResolved.IsTerminal())
	require.False(t, TicketStatusOpen.IsTerminal())
}

func TestReopensOnReply(t *testing.T) {
	require.True(t, TicketStatusResolved.ReopensOnReply())
	require.True(t, TicketStatusClosed.ReopensOnReply())
	require.False(t, TicketStatusOpen.ReopensOnReply())
	require.False(t, TicketStatusInProgress.ReopensOnReply())
	require.False(t, TicketStatusAwaitingResponse.ReopensOnReply())
}
