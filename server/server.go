/*
 * Copyright (c) 2024. Shuojiang Liu.
 * Licensed under the MIT License (the "License");
 * you may not use this file except in compliance with the License.
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/exodb/exodb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// Addr is the TCP listen address
	Addr string

	// SweepInterval is the period of the expired-key sweep
	SweepInterval time.Duration
}

var DefaultOptions = Options{
	Addr:          "0.0.0.0:15000",
	SweepInterval: 2 * time.Second,
}

// Server accepts client connections and executes their commands against the
// store. Commands are serialized through a single exec mutex, so each one
// runs to completion before the next begins, whichever session it came from.
type Server struct {
	options Options
	store   *exodb.Store
	log     *zap.Logger

	listener net.Listener

	// execMu serializes command execution and the expiry sweep
	execMu sync.Mutex

	// mu guards the live-session registry
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func New(store *exodb.Store, options Options, log *zap.Logger) *Server {
	return &Server{
		options:  options,
		store:    store,
		log:      log.Named("server"),
		sessions: make(map[*Session]struct{}),
	}
}

// Listen opens the TCP listener without serving yet. Run calls it when it
// has not been called; tests call it first to learn the bound address.
func (srv *Server) Listen() error {
	listener, err := net.Listen("tcp4", srv.options.Addr)
	if err != nil {
		return err
	}

	srv.listener = listener
	return nil
}

// Addr returns the bound listen address, or nil before Listen
func (srv *Server) Addr() net.Addr {
	if srv.listener == nil {
		return nil
	}

	return srv.listener.Addr()
}

// Run serves until the context is cancelled, then shuts down gracefully:
// every session is stopped and the registry cleared, the store is saved,
// and the listener closed.
func (srv *Server) Run(ctx context.Context) error {
	if srv.listener == nil {
		if err := srv.Listen(); err != nil {
			return err
		}
	}

	srv.log.Info("server started", zap.String("addr", srv.listener.Addr().String()))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.acceptLoop(ctx)
	})

	g.Go(func() error {
		return srv.sweepLoop(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		srv.shutdown()
		return nil
	})

	err := g.Wait()
	srv.log.Info("server stopped")

	return err
}

func (srv *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			// the listener is closed during shutdown; that is not a failure
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		sess := newSession(conn, srv)

		srv.mu.Lock()
		srv.sessions[sess] = struct{}{}
		srv.mu.Unlock()

		srv.log.Debug("session opened", zap.String("remote", conn.RemoteAddr().String()))
		go sess.serve()
	}
}

func (srv *Server) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(srv.options.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			srv.execMu.Lock()
			evicted := srv.store.ExpireSweep()
			srv.execMu.Unlock()

			if evicted > 0 {
				srv.log.Debug("expired keys swept", zap.Int("evicted", evicted))
			}
		}
	}
}

// shutdown stops the sessions, saves the store and closes the listener, in
// that order
func (srv *Server) shutdown() {
	srv.mu.Lock()
	for sess := range srv.sessions {
		_ = sess.conn.Close()
	}
	srv.sessions = make(map[*Session]struct{})
	srv.mu.Unlock()

	stat := srv.store.Stat()
	srv.log.Info("saving snapshot",
		zap.Int("keys", stat.KeyNum),
		zap.Int("strings", stat.BinaryStringNum),
		zap.Int("zsets", stat.SortedSetNum))

	if err := srv.store.Save(); err != nil {
		srv.log.Error("snapshot save on shutdown failed", zap.Error(err))
	}

	_ = srv.listener.Close()
}

func (srv *Server) removeSession(sess *Session) {
	srv.mu.Lock()
	delete(srv.sessions, sess)
	srv.mu.Unlock()
}
