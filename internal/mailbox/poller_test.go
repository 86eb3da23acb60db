package mailbox

import (
	"context"
	"errors"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/config"
	"github.com/spec-kit/ticket-mailroom/internal/domain"
	"github.com/spec-kit/ticket-mailroom/internal/service"
)

func enabledConfig() config.MailboxConfig {
	return config.MailboxConfig{
		Host:     "mail.example.com",
		Username: "support",
		Password: "secret",
		Folder:   "INBOX",
	}
}

func rawReply(reference string) []byte {
	return []byte("From: jane@example.com\r\n" +
		"Subject: Re: [" + reference + "]\r\n" +
		"Message-Id: <m-1@mail.example.com>\r\n" +
		"\r\n" +
		"Here is my reply with plenty of content.\r\n")
}

type recordingCorrelator struct {
	inputs  []service.InboundEmail
	origins []domain.MessageOrigin
	failOn  string
}

func (c *recordingCorrelator) Process(_ context.Context, in service.InboundEmail, via domain.MessageOrigin) (*service.InboundResult, error) {
	c.inputs = append(c.inputs, in)
	c.origins = append(c.origins, via)
	if c.failOn != "" && in.Subject == c.failOn {
		return nil, errors.New("rejected")
	}
	return &service.InboundResult{Reference: "TT-ABC123-XYZ789"}, nil
}

func newTestPoller(sess *fakeSession, correlator Correlator) *Poller {
	return NewPoller(enabledConfig(), correlator, zap.NewNop(),
		withSessionFactory(func(config.MailboxConfig) (imapSession, error) { return sess, nil }))
}

func TestPollProcessesUnreadAndMarksSeen(t *testing.T) {
	sess := &fakeSession{
		uids: []imap.UID{5, 6},
		bodies: map[imap.UID][]byte{
			5: rawReply("TT-ABC123-XYZ789"),
			6: rawReply("TT-AAAAAA-BBBBBB"),
		},
	}
	correlator := &recordingCorrelator{}
	p := newTestPoller(sess, correlator)

	processed, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, processed)

	require.Len(t, correlator.inputs, 2)
	require.Equal(t, "jane@example.com", correlator.inputs[0].From)
	require.Equal(t, "m-1@mail.example.com", correlator.inputs[0].MessageID)
	require.Equal(t, domain.OriginEmailPoll, correlator.origins[0])

	require.Equal(t, []imap.UID{5, 6}, sess.seenUIDs)
	require.Equal(t, 1, sess.logoutCalls)
	require.True(t, sess.closed)
}

func TestPollFailedMessageStaysUnreadAndCycleContinues(t *testing.T) {
	sess := &fakeSession{
		uids: []imap.UID{5, 6},
		bodies: map[imap.UID][]byte{
			5: rawReply("TT-ABC123-XYZ789"),
			6: rawReply("TT-AAAAAA-BBBBBB"),
		},
	}
	correlator := &recordingCorrelator{failOn: "Re: [TT-ABC123-XYZ789]"}
	p := newTestPoller(sess, correlator)

	processed, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, processed)
	// only the accepted message was acknowledged
	require.Equal(t, []imap.UID{6}, sess.seenUIDs)
}

func TestPollEmptyMailbox(t *testing.T) {
	sess := &fakeSession{}
	p := newTestPoller(sess, &recordingCorrelator{})

	processed, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Zero(t, processed)
	require.Equal(t, 1, sess.logoutCalls)
	require.True(t, sess.closed)
}

func TestPollConnectFailureAborts(t *testing.T) {
	p := NewPoller(enabledConfig(), &recordingCorrelator{}, zap.NewNop(),
		withSessionFactory(func(config.MailboxConfig) (imapSession, error) {
			return nil, errors.New("dial failed")
		}))
	_, err := p.Poll(context.Background())
	require.ErrorContains(t, err, "imap connect")
}

func TestPollAuthFailureAborts(t *testing.T) {
	sess := &fakeSession{loginErr: errors.New("bad creds")}
	p := newTestPoller(sess, &recordingCorrelator{})
	_, err := p.Poll(context.Background())
	require.ErrorContains(t, err, "imap auth")
	require.True(t, sess.closed)
}

func TestPollNotConfigured(t *testing.T) {
	p := NewPoller(config.MailboxConfig{}, &recordingCorrelator{}, zap.NewNop())
	_, err := p.Poll(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}

type fakeSession struct {
	uids   []imap.UID
	bodies map[imap.UID][]byte

	loginErr  error
	selectErr error
	searchErr error
	fetchErr  error
	storeErr  error

	seenUIDs    []imap.UID
	logoutCalls int
	closed      bool
}

func (s *fakeSession) Login(_, _ string) commandWaiter { return &fakeCommand{err: s.loginErr} }
func (s *fakeSession) Logout() commandWaiter {
	s.logoutCalls++
	return &fakeCommand{}
}
func (s *fakeSession) Close() error { s.closed = true; return nil }
func (s *fakeSession) Select(_ string, _ *imap.SelectOptions) selectWaiter {
	return &fakeSelect{err: s.selectErr}
}
func (s *fakeSession) UIDSearch(_ *imap.SearchCriteria, _ *imap.SearchOptions) searchWaiter {
	return &fakeSearch{err: s.searchErr, data: &imap.SearchData{All: imap.UIDSetNum(s.uids...)}}
}
func (s *fakeSession) Fetch(_ imap.NumSet, _ *imap.FetchOptions) fetchWaiter {
	var bufs []*imapclient.FetchMessageBuffer
	if s.fetchErr == nil {
		for _, uid := range s.uids {
			bufs = append(bufs, &imapclient.FetchMessageBuffer{
				SeqNum: uint32(uid),
				UID:    uid,
				BodySection: []imapclient.FetchBodySectionBuffer{{
					Section: &imap.FetchItemBodySection{},
					Bytes:   append([]byte(nil), s.bodies[uid]...),
				}},
			})
		}
	}
	return &fakeFetch{err: s.fetchErr, bufs: bufs}
}
func (s *fakeSession) Store(numSet imap.NumSet, _ *imap.StoreFlags, _ *imap.StoreOptions) storeWaiter {
	if s.storeErr == nil {
		if uidSet, ok := numSet.(imap.UIDSet); ok {
			for _, r := range uidSet {
				s.seenUIDs = append(s.seenUIDs, r.Start)
			}
		}
	}
	return &fakeStore{err: s.storeErr}
}

type fakeCommand struct{ err error }

func (c *fakeCommand) Wait() error { return c.err }

type fakeSelect struct{ err error }

func (s *fakeSelect) Wait() (*imap.SelectData, error) { return nil, s.err }

type fakeSearch struct {
	err  error
	data *imap.SearchData
}

func (s *fakeSearch) Wait() (*imap.SearchData, error) { return s.data, s.err }

type fakeFetch struct {
	err  error
	bufs []*imapclient.FetchMessageBuffer
}

func (f *fakeFetch) Collect() ([]*imapclient.FetchMessageBuffer, error) { return f.bufs, f.err }

type fakeStore struct{ err error }

func (s *fakeStore) Close() error { return s.err }
