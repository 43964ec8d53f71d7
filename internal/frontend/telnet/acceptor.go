package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/config"
)

// FullMessage is sent to a client turned away because MaxSessions clients
// are already connected.
const FullMessage = "The map browser is full. Try again later."

// SessionHandler serves one negotiated client until it leaves or ctx ends.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// SessionHandlerFunc lets a plain function serve sessions.
type SessionHandlerFunc func(ctx context.Context, conn *Conn) error

// HandleSession calls f.
func (f SessionHandlerFunc) HandleSession(ctx context.Context, conn *Conn) error {
	return f(ctx, conn)
}

// Acceptor accepts Telnet clients on a TCP port and runs a SessionHandler
// for each on its own goroutine.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	sessions int
}

// NewAcceptor returns an idle Acceptor.
//
// Precondition: handler and logger are non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Acceptor{cfg: cfg, handler: handler, logger: logger, ctx: ctx, cancel: cancel}
}

// ListenAndServe listens on the configured address and serves until Stop.
func (a *Acceptor) ListenAndServe() error {
	l, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(l)
}

// Serve accepts on l until Stop. It returns nil after Stop, including when
// Stop ran first.
//
// Postcondition: l is closed.
func (a *Acceptor) Serve(l net.Listener) error {
	a.mu.Lock()
	if a.ctx.Err() != nil {
		a.mu.Unlock()
		return l.Close()
	}
	a.listener = l
	a.mu.Unlock()
	a.logger.Info("telnet listening", zap.Stringer("addr", l.Addr()))

	for {
		raw, err := l.Accept()
		switch {
		case err == nil:
		case a.ctx.Err() != nil:
			return nil
		case errors.Is(err, net.ErrClosed):
			return err
		default:
			a.logger.Warn("accept failed", zap.Error(err))
			continue
		}
		switch a.admit() {
		case admitted:
			go a.serve(raw)
		case full:
			go a.turnAway(raw)
		default:
			_ = raw.Close()
		}
	}
}

type admission int

const (
	admitted admission = iota
	full
	stopping
)

// admit reserves a session slot. Slots are only taken before Stop cancels.
func (a *Acceptor) admit() admission {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.ctx.Err() != nil:
		return stopping
	case a.cfg.MaxSessions > 0 && a.sessions >= a.cfg.MaxSessions:
		return full
	}
	a.sessions++
	a.wg.Add(1)
	return admitted
}

func (a *Acceptor) turnAway(raw net.Conn) {
	a.logger.Warn("session limit reached",
		zap.Stringer("remote_addr", raw.RemoteAddr()),
		zap.Int("max_sessions", a.cfg.MaxSessions),
	)
	c := NewConn(raw, 0, a.cfg.WriteTimeout)
	_ = c.WriteLine(FullMessage)
	_ = c.Close()
}

func (a *Acceptor) serve(raw net.Conn) {
	began := time.Now()
	log := a.logger.With(zap.Stringer("remote_addr", raw.RemoteAddr()))
	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	ctx, cancel := context.WithCancel(a.ctx)

	// Closing the socket is the only way to interrupt a blocked ReadLine.
	closed := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		cancel()
		closed()
		_ = conn.Close()
		a.mu.Lock()
		a.sessions--
		a.mu.Unlock()
		a.wg.Done()
	}()

	log.Info("client connected")
	if err := conn.Negotiate(); err != nil {
		log.Warn("negotiation failed", zap.Error(err))
		return
	}
	err := a.handler.HandleSession(ctx, conn)
	log.Info("client disconnected", zap.Duration("duration", time.Since(began)), zap.NamedError("reason", err))
}

// Stop closes the listener, cancels every session and waits for them.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	a.cancel()
	l := a.listener
	a.listener = nil
	a.mu.Unlock()

	if l != nil {
		_ = l.Close()
	}
	a.wg.Wait()
	if l != nil {
		a.logger.Info("telnet stopped")
	}
}

// Addr is the bound address, or "" while not listening.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// IsRunning reports whether the acceptor is accepting clients.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener != nil
}

// Sessions is the number of connected clients.
func (a *Acceptor) Sessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions
}
