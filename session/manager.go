// Package session owns the connection lifecycle: dial, bind handlers,
// persist refreshed credentials, and reconnect after transient closes.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"tonebot/contract"
	"tonebot/domain"
	"tonebot/errors"
)

// Dispatcher receives the live session and its inbound messages.
type Dispatcher interface {
	Bind(session contract.Session)
	Dispatch(ctx context.Context, msg domain.InboundMessage)
}

// Manager drives the reconnect loop. One Run call handles the whole
// process lifetime; every successful dial re-registers all handlers, so
// a reconnect behaves exactly like a first connect.
type Manager struct {
	log        *slog.Logger
	transport  contract.Transport
	creds      contract.CredentialStore
	dispatcher Dispatcher
	retry      RetryPolicy
	onOpen     func(session contract.Session)

	state atomic.Value
}

func NewManager(
	log *slog.Logger,
	transport contract.Transport,
	creds contract.CredentialStore,
	dispatcher Dispatcher,
	retry RetryPolicy,
	onOpen func(session contract.Session),
) *Manager {
	m := &Manager{
		log:        log,
		transport:  transport,
		creds:      creds,
		dispatcher: dispatcher,
		retry:      retry,
		onOpen:     onOpen,
	}
	m.state.Store(contract.ConnectionClosed)
	return m
}

// State reports the last observed connection state.
func (m *Manager) State() contract.ConnectionState {
	return m.state.Load().(contract.ConnectionState)
}

// Run connects and blocks until the session ends for good: a terminal
// logout returns nil, an exhausted retry policy or a credential load
// failure returns the error, context cancellation returns ctx.Err().
func (m *Manager) Run(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		err := m.connectOnce(ctx)
		switch {
		case err == nil:
			m.log.Info("Logged out, not reconnecting")
			return nil
		case stderrors.Is(err, errors.ErrConnectionClosed):
			delay, retry := m.retry.Next(attempt)
			if !retry {
				return err
			}
			m.log.Warn("Connection lost, reconnecting",
				"attempt", attempt+1, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		default:
			return err
		}
	}
}

func (m *Manager) connectOnce(ctx context.Context) error {
	blob, err := m.creds.Load(ctx)
	if err != nil {
		// A broken store would silently fork the session identity,
		// so this is fatal rather than a fresh-pairing fallback.
		return fmt.Errorf("loading credentials: %w", err)
	}
	if blob == nil {
		m.log.Info("No stored credentials, starting fresh pairing")
	}

	sess, err := m.transport.Dial(ctx, blob)
	if err != nil {
		return fmt.Errorf("%w: dial: %v", errors.ErrConnectionClosed, err)
	}
	defer sess.Close()

	closedCh := make(chan contract.ConnectionUpdate, 1)
	sess.OnConnection(func(update contract.ConnectionUpdate) {
		if update.QR != "" {
			m.log.Info("Pairing required, scan the QR payload", "qr", update.QR)
		}
		switch update.State {
		case contract.ConnectionOpen:
			m.state.Store(contract.ConnectionOpen)
			m.log.Info("Connection open", "self", sess.SelfID())
			if m.onOpen != nil {
				m.onOpen(sess)
			}
		case contract.ConnectionClosed:
			m.state.Store(contract.ConnectionClosed)
			select {
			case closedCh <- update:
			default:
			}
		}
	})
	sess.OnCredentials(func(blob []byte) {
		if err := m.creds.Save(ctx, blob); err != nil {
			m.log.Error("Credential save failed", "error", err)
		}
	})
	sess.OnMessage(func(msg domain.InboundMessage) {
		m.dispatcher.Dispatch(ctx, msg)
	})

	m.dispatcher.Bind(sess)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case update := <-closedCh:
		if update.Terminal {
			return nil
		}
		return fmt.Errorf("%w: %s", errors.ErrConnectionClosed, update.Reason)
	}
}
