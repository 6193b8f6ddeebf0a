// Package transport speaks to the protocol gateway sidecar over a
// websocket. The gateway owns encryption, pairing and keep-alive; this
// side only exchanges JSON frames.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tonebot/contract"
	"tonebot/domain"
)

// readyTimeout bounds how long a dial waits for the gateway handshake.
const readyTimeout = 30 * time.Second

// frame is the single wire envelope, discriminated by Type.
type frame struct {
	Type         string   `json:"type"`
	ID           string   `json:"id,omitempty"`
	Creds        []byte   `json:"creds,omitempty"`
	Self         string   `json:"self,omitempty"`
	State        string   `json:"state,omitempty"`
	Terminal     bool     `json:"terminal,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	QR           string   `json:"qr,omitempty"`
	Chat         string   `json:"chat,omitempty"`
	Sender       string   `json:"sender,omitempty"`
	Text         string   `json:"text,omitempty"`
	At           int64    `json:"at,omitempty"` // unix milliseconds
	Mentions     []string `json:"mentions,omitempty"`
	FromMe       bool     `json:"from_me,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Error        string   `json:"error,omitempty"`
}

const (
	frameInit         = "init"
	frameReady        = "ready"
	frameConnection   = "connection"
	frameCreds        = "creds"
	frameMessage      = "message"
	frameSend         = "send"
	frameParticipants = "participants"
	frameResult       = "result"
)

// Bridge dials the gateway sidecar.
type Bridge struct {
	url    string
	log    *slog.Logger
	dialer *websocket.Dialer
}

func NewBridge(url string, log *slog.Logger) *Bridge {
	return &Bridge{url: url, log: log, dialer: websocket.DefaultDialer}
}

// Dial opens the websocket, hands the stored credentials to the gateway
// and waits for its ready frame. The returned session is live once the
// gateway reports the connection open.
func (b *Bridge) Dial(ctx context.Context, creds []byte) (contract.Session, error) {
	conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing gateway at %s: %w", b.url, err)
	}

	sess := &Session{
		conn:    conn,
		log:     b.log,
		pending: make(map[string]chan frame),
	}

	if err := sess.write(frame{Type: frameInit, Creds: creds}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sending init frame: %w", err)
	}

	// The ready frame is the gateway's first answer and carries the
	// session's own identifier.
	_ = conn.SetReadDeadline(time.Now().Add(readyTimeout))
	var ready frame
	if err := conn.ReadJSON(&ready); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("waiting for gateway ready: %w", err)
	}
	if ready.Type != frameReady {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected handshake frame %q", ready.Type)
	}
	_ = conn.SetReadDeadline(time.Time{})

	sess.self = domain.ParticipantID(ready.Self)
	go sess.readLoop()
	return sess, nil
}

// Session is one gateway connection.
type Session struct {
	conn *websocket.Conn
	log  *slog.Logger
	self domain.ParticipantID

	writeMu sync.Mutex

	mu            sync.Mutex
	onConnection  func(contract.ConnectionUpdate)
	onCredentials func(blob []byte)
	onMessage     func(msg domain.InboundMessage)
	pending       map[string]chan frame
	backlog       []frame
	closed        bool
}

// Frames arriving between Dial and handler registration are held back
// and replayed, so an eager gateway never loses an event.
func (s *Session) OnConnection(fn func(contract.ConnectionUpdate)) {
	s.mu.Lock()
	s.onConnection = fn
	s.mu.Unlock()
	s.replayBacklog()
}

func (s *Session) OnCredentials(fn func([]byte)) {
	s.mu.Lock()
	s.onCredentials = fn
	s.mu.Unlock()
	s.replayBacklog()
}

func (s *Session) OnMessage(fn func(domain.InboundMessage)) {
	s.mu.Lock()
	s.onMessage = fn
	s.mu.Unlock()
	s.replayBacklog()
}

func (s *Session) replayBacklog() {
	s.mu.Lock()
	backlog := s.backlog
	s.backlog = nil
	s.mu.Unlock()

	for _, f := range backlog {
		s.dispatch(f)
	}
}

func (s *Session) SelfID() domain.ParticipantID { return s.self }

func (s *Session) write(f frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(f)
}

// Send delivers one message and waits for the gateway's acknowledgement.
func (s *Session) Send(ctx context.Context, chat domain.ChatID, msg domain.Outbound) error {
	result, err := s.roundTrip(ctx, frame{
		Type: frameSend,
		Chat: string(chat),
		Text: msg.Text,
		Mentions: func() []string {
			out := make([]string, len(msg.Mentions))
			for i, m := range msg.Mentions {
				out[i] = string(m)
			}
			return out
		}(),
	})
	if err != nil {
		return err
	}
	if result.Error != "" {
		return fmt.Errorf("gateway rejected send: %s", result.Error)
	}
	return nil
}

// Participants asks the gateway for the group's member list.
func (s *Session) Participants(ctx context.Context, chat domain.ChatID) ([]domain.ParticipantID, error) {
	result, err := s.roundTrip(ctx, frame{Type: frameParticipants, Chat: string(chat)})
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("gateway participants lookup: %s", result.Error)
	}
	out := make([]domain.ParticipantID, len(result.Participants))
	for i, p := range result.Participants {
		out[i] = domain.ParticipantID(p)
	}
	return out, nil
}

// roundTrip tags the frame with a correlation id and blocks until the
// matching result frame arrives or the context ends.
func (s *Session) roundTrip(ctx context.Context, f frame) (frame, error) {
	f.ID = uuid.NewString()
	resultCh := make(chan frame, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return frame{}, fmt.Errorf("session is closed")
	}
	s.pending[f.ID] = resultCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, f.ID)
		s.mu.Unlock()
	}()

	if err := s.write(f); err != nil {
		return frame{}, err
	}

	select {
	case <-ctx.Done():
		return frame{}, ctx.Err()
	case result, ok := <-resultCh:
		if !ok {
			return frame{}, fmt.Errorf("connection lost before the gateway answered")
		}
		return result, nil
	}
}

func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *Session) readLoop() {
	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			s.handleDisconnect(err)
			return
		}
		s.dispatch(f)
	}
}

// handleDisconnect turns a dead socket into a connection update so the
// lifecycle manager can decide whether to reconnect.
func (s *Session) handleDisconnect(cause error) {
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	onConnection := s.onConnection
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if wasClosed {
		return
	}
	s.log.Warn("Gateway socket lost", "error", cause)
	if onConnection == nil {
		s.holdBack(frame{Type: frameConnection, State: string(contract.ConnectionClosed), Reason: cause.Error()})
		return
	}
	onConnection(contract.ConnectionUpdate{
		State:  contract.ConnectionClosed,
		Reason: cause.Error(),
	})
}

func (s *Session) dispatch(f frame) {
	s.mu.Lock()
	onConnection := s.onConnection
	onCredentials := s.onCredentials
	onMessage := s.onMessage
	resultCh := s.pending[f.ID]
	s.mu.Unlock()

	switch f.Type {
	case frameConnection:
		if onConnection == nil {
			s.holdBack(f)
			return
		}
		onConnection(contract.ConnectionUpdate{
			State:    contract.ConnectionState(f.State),
			Terminal: f.Terminal,
			Reason:   f.Reason,
			QR:       f.QR,
		})
	case frameCreds:
		if onCredentials == nil {
			s.holdBack(f)
			return
		}
		onCredentials(f.Creds)
	case frameMessage:
		if onMessage == nil {
			s.holdBack(f)
			return
		}
		mentions := make([]domain.ParticipantID, len(f.Mentions))
		for i, m := range f.Mentions {
			mentions[i] = domain.ParticipantID(m)
		}
		onMessage(domain.InboundMessage{
			Chat:           domain.ChatID(f.Chat),
			Sender:         domain.ParticipantID(f.Sender),
			Text:           f.Text,
			At:             time.UnixMilli(f.At),
			Mentions:       mentions,
			SelfOriginated: f.FromMe,
		})
	case frameResult:
		if resultCh != nil {
			resultCh <- f
		}
	default:
		s.log.Debug("Ignoring unknown gateway frame", "type", f.Type)
	}
}

func (s *Session) holdBack(f frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backlog = append(s.backlog, f)
}
