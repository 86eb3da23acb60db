package mailparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanReplyStopsAtQuoteMarkers(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "gmail attribution",
			raw:  "Thanks, that fixed it!\n\nOn Tue, Jan 2, 2024 at 9:00 AM Support <support@example.com> wrote:\n> previous message",
			want: "Thanks, that fixed it!",
		},
		{
			name: "outlook header",
			raw:  "Still broken on my end.\nFrom: Support Sent: Tuesday\nOld content",
			want: "Still broken on my end.",
		},
		{
			name: "angle quote",
			raw:  "Here is more detail.\n> earlier text\n> more earlier text",
			want: "Here is more detail.",
		},
		{
			name: "original message divider",
			raw:  "New information below.\n-----Original Message-----\nold stuff",
			want: "New information below.",
		},
		{
			name: "underscore rule",
			raw:  "Confirming the schedule works.\n________________________________\nquoted thread",
			want: "Confirming the schedule works.",
		},
		{
			name: "no markers",
			raw:  "Just a normal reply\nwith two lines",
			want: "Just a normal reply\nwith two lines",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CleanReply(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCleanReplyIdempotent(t *testing.T) {
	raw := "The error still appears after the update.\n\nOn Mon, someone wrote:\n> quoted"
	once, err := CleanReply(raw)
	require.NoError(t, err)
	twice, err := CleanReply(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestCleanReplyPreservesLinesBeforeMarker(t *testing.T) {
	raw := "line one\nline two\nline three\n> quoted"
	got, err := CleanReply(raw)
	require.NoError(t, err)
	require.Equal(t, "line one\nline two\nline three", got)
}

func TestCleanReplyRejectsShortContent(t *testing.T) {
	shortInputs := []string{
		"",
		"ok",
		"thanks",
		"   \n  \n",
		"> everything quoted\n> nothing new",
	}
	for _, raw := range shortInputs {
		_, err := CleanReply(raw)
		require.ErrorIs(t, err, ErrReplyTooShort, "raw %q", raw)
	}
}
