package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/config"
)

func TestSimulatedSendWhenNoAPIKey(t *testing.T) {
	m := New(config.MailerConfig{FromAddress: "support@example.com"}, zap.NewNop())

	result, err := m.Send(context.Background(), Message{
		To:      "jane@example.com",
		Subject: "Your ticket [TT-ABC123-XYZ789]",
		HTML:    "<p>hello</p>",
	})
	require.NoError(t, err)
	require.True(t, result.Simulated)
}

func TestProviderSend(t *testing.T) {
	var got providerRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "email-42"})
	}))
	defer server.Close()

	m := New(config.MailerConfig{
		APIKey:      "key-123",
		Endpoint:    server.URL,
		FromAddress: "support@example.com",
		FromName:    "Support Team",
	}, zap.NewNop())

	result, err := m.Send(context.Background(), Message{
		To:      "jane@example.com",
		Subject: "Your ticket [TT-ABC123-XYZ789]",
		HTML:    "<p>hello</p>",
		ReplyTo: "inbox@example.com",
	})
	require.NoError(t, err)
	require.False(t, result.Simulated)
	require.Equal(t, "email-42", result.ProviderID)

	require.Equal(t, "Support Team <support@example.com>", got.From)
	require.Equal(t, []string{"jane@example.com"}, got.To)
	require.Equal(t, "Your ticket [TT-ABC123-XYZ789]", got.Subject)
	require.Equal(t, "inbox@example.com", got.ReplyTo)
}

func TestProviderSendNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid recipient"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	m := New(config.MailerConfig{APIKey: "key-123", Endpoint: server.URL}, zap.NewNop())

	_, err := m.Send(context.Background(), Message{To: "not-an-address"})
	require.ErrorContains(t, err, "provider returned 422")
}
