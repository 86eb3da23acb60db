package mailbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/config"
	"github.com/spec-kit/ticket-mailroom/internal/domain"
	"github.com/spec-kit/ticket-mailroom/internal/mailparse"
	"github.com/spec-kit/ticket-mailroom/internal/service"
)

// Correlator resolves one parsed inbound email to a ticket.
type Correlator interface {
	Process(ctx context.Context, in service.InboundEmail, via domain.MessageOrigin) (*service.InboundResult, error)
}

// ErrNotConfigured is returned when no mailbox account is set up.
var ErrNotConfigured = errors.New("mailbox polling not configured")

// imapSession narrows the imapclient surface the poller needs, so tests can
// substitute a fake.
type imapSession interface {
	Login(username, password string) commandWaiter
	Logout() commandWaiter
	Close() error
	Select(mailbox string, options *imap.SelectOptions) selectWaiter
	UIDSearch(criteria *imap.SearchCriteria, options *imap.SearchOptions) searchWaiter
	Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter
	Store(numSet imap.NumSet, store *imap.StoreFlags, options *imap.StoreOptions) storeWaiter
}

type commandWaiter interface{ Wait() error }
type selectWaiter interface {
	Wait() (*imap.SelectData, error)
}
type searchWaiter interface {
	Wait() (*imap.SearchData, error)
}
type fetchWaiter interface {
	Collect() ([]*imapclient.FetchMessageBuffer, error)
}
type storeWaiter interface{ Close() error }

// Poller drains unread ticket replies from the configured IMAP mailbox.
// Messages are marked seen only after the correlator accepts them, so a
// failed message stays unread for a future cycle.
type Poller struct {
	cfg        config.MailboxConfig
	correlator Correlator
	logger     *zap.Logger

	dialTimeout time.Duration
	newSession  func(config.MailboxConfig) (imapSession, error)
}

// PollerOption customizes poller behavior.
type PollerOption func(*Poller)

// NewPoller builds a poller for the given account.
func NewPoller(cfg config.MailboxConfig, correlator Correlator, logger *zap.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		cfg:         cfg,
		correlator:  correlator,
		logger:      logger,
		dialTimeout: 10 * time.Second,
	}
	p.newSession = p.dialSession
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithDialTimeout overrides the socket dial timeout.
func WithDialTimeout(timeout time.Duration) PollerOption {
	return func(p *Poller) {
		if timeout > 0 {
			p.dialTimeout = timeout
		}
	}
}

func withSessionFactory(factory func(config.MailboxConfig) (imapSession, error)) PollerOption {
	return func(p *Poller) {
		p.newSession = factory
	}
}

// Poll runs one cycle: connect, select the inbox, search unseen, process
// each hit, acknowledge successes, tear the session down. A connection
// failure aborts the cycle; one message's failure does not abort the rest.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	if !p.cfg.Enabled() {
		return 0, ErrNotConfigured
	}

	session, err := p.newSession(p.cfg)
	if err != nil {
		return 0, fmt.Errorf("imap connect: %w", err)
	}
	defer p.safeClose(session)

	if err := session.Login(p.cfg.Username, p.cfg.Password).Wait(); err != nil {
		return 0, fmt.Errorf("imap auth: %w", err)
	}

	folder := p.cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := session.Select(folder, nil).Wait(); err != nil {
		return 0, fmt.Errorf("imap select %s: %w", folder, err)
	}

	criteria := &imap.SearchCriteria{NotFlag: []imap.Flag{imap.FlagSeen}}
	searchData, err := session.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return 0, fmt.Errorf("imap search: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		p.logout(session)
		return 0, nil
	}

	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{{}},
	}
	buffers, err := session.Fetch(imap.UIDSetNum(uids...), fetchOpts).Collect()
	if err != nil {
		return 0, fmt.Errorf("imap fetch: %w", err)
	}

	processed := 0
	for _, buf := range buffers {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		body := buf.FindBodySection(&imap.FetchItemBodySection{})
		if body == nil {
			continue
		}

		env := mailparse.ParseEnvelope(body)
		in := service.InboundEmail{
			From:      env.From,
			Subject:   env.Subject,
			Text:      env.Text,
			HTML:      env.HTML,
			MessageID: env.MessageID,
		}
		if _, err := p.correlator.Process(ctx, in, domain.OriginEmailPoll); err != nil {
			// stays unread; a future cycle retries it
			p.logger.Warn("inbound email not processed",
				zap.Uint32("uid", uint32(buf.UID)),
				zap.String("subject", env.Subject),
				zap.Error(err),
			)
			continue
		}

		if err := p.markSeen(session, buf.UID); err != nil {
			p.logger.Error("failed to mark message seen",
				zap.Uint32("uid", uint32(buf.UID)),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	p.logout(session)
	return processed, nil
}

func (p *Poller) markSeen(session imapSession, uid imap.UID) error {
	store := &imap.StoreFlags{Op: imap.StoreFlagsAdd, Flags: []imap.Flag{imap.FlagSeen}}
	return session.Store(imap.UIDSetNum(uid), store, nil).Close()
}

func (p *Poller) logout(session imapSession) {
	if err := session.Logout().Wait(); err != nil {
		p.logger.Warn("imap logout failed", zap.Error(err))
	}
}

func (p *Poller) safeClose(session imapSession) {
	if session == nil {
		return
	}
	if err := session.Close(); err != nil {
		p.logger.Debug("imap close", zap.Error(err))
	}
}

func (p *Poller) dialSession(cfg config.MailboxConfig) (imapSession, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailbox account missing host")
	}
	port := cfg.Port
	if port == 0 {
		if cfg.UseTLS {
			port = 993
		} else {
			port = 143
		}
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	opts := &imapclient.Options{Dialer: &net.Dialer{Timeout: p.dialTimeout}}

	var client *imapclient.Client
	var err error
	if cfg.UseTLS {
		client, err = imapclient.DialTLS(addr, opts)
	} else {
		client, err = imapclient.DialInsecure(addr, opts)
	}
	if err != nil {
		return nil, err
	}
	return &sessionWrapper{Client: client}, nil
}

type sessionWrapper struct{ *imapclient.Client }

func (w *sessionWrapper) Login(username, password string) commandWaiter {
	return w.Client.Login(username, password)
}
func (w *sessionWrapper) Logout() commandWaiter { return w.Client.Logout() }
func (w *sessionWrapper) Select(mailbox string, options *imap.SelectOptions) selectWaiter {
	return w.Client.Select(mailbox, options)
}
func (w *sessionWrapper) UIDSearch(criteria *imap.SearchCriteria, options *imap.SearchOptions) searchWaiter {
	return w.Client.UIDSearch(criteria, options)
}
func (w *sessionWrapper) Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter {
	return w.Client.Fetch(numSet, options)
}
func (w *sessionWrapper) Store(numSet imap.NumSet, store *imap.StoreFlags, options *imap.StoreOptions) storeWaiter {
	return w.Client.Store(numSet, store, options)
}
