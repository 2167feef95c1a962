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
	"bufio"
	"bytes"
	"net"

	"github.com/exodb/exodb"
	"github.com/tidwall/redcon"
	"go.uber.org/zap"
)

// maxCommandLine bounds a single command line; longer lines close the session
const maxCommandLine = 1 << 20

// Session owns one client connection. It reads one \r\n-terminated command
// line at a time, tokenizes it, runs the handler under the server's exec
// mutex and writes the framed reply back before reading again. Any I/O
// error closes the connection and removes the session from the registry.
type Session struct {
	conn  net.Conn
	store *exodb.Store
	srv   *Server
	log   *zap.Logger

	// out accumulates the reply bytes for the command in flight
	out []byte
}

func newSession(conn net.Conn, srv *Server) *Session {
	return &Session{
		conn:  conn,
		store: srv.store,
		srv:   srv,
		log:   srv.log.Named("session").With(zap.String("remote", conn.RemoteAddr().String())),
	}
}

// scanCRLF is a bufio.SplitFunc yielding lines terminated by \r\n, with the
// delimiter stripped. A partial line at connection close is discarded.
func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\r\n")); i >= 0 {
		return i + 2, data[:i], nil
	}

	return 0, nil, nil
}

// serve runs the session loop until the peer disconnects or an I/O error
// occurs
func (s *Session) serve() {
	defer s.close()

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 4096), maxCommandLine)
	scanner.Split(scanCRLF)

	for scanner.Scan() {
		s.out = s.out[:0]
		s.execute(scanner.Bytes())

		if _, err := s.conn.Write(s.out); err != nil {
			return
		}
	}
}

// execute tokenizes one command line, dispatches it and leaves the reply in
// the output buffer
func (s *Session) execute(line []byte) {
	tokens, err := Tokenize(line)
	if err != nil {
		s.writeError("Tokenizing error: " + err.Error())
		return
	}

	name := string(bytes.ToUpper(tokens[0]))
	handler, ok := supportedCommands[name]
	if !ok {
		s.writeError("Unknown command " + name)
		return
	}

	// one command at a time across all sessions
	s.srv.execMu.Lock()
	handler(s, tokens[1:])
	s.srv.execMu.Unlock()
}

func (s *Session) close() {
	_ = s.conn.Close()
	s.srv.removeSession(s)
}

// Reply framing. The builders come from tidwall/redcon:
// [https://github.com/tidwall/redcon]

func (s *Session) writeSimple(msg string) {
	s.out = redcon.AppendString(s.out, msg)
}

func (s *Session) writeError(msg string) {
	s.out = redcon.AppendError(s.out, "ERR "+msg)
}

func (s *Session) writeInt(n int64) {
	s.out = redcon.AppendInt(s.out, n)
}

func (s *Session) writeBulk(b []byte) {
	s.out = redcon.AppendBulk(s.out, b)
}

func (s *Session) writeNullBulk() {
	s.out = redcon.AppendNull(s.out)
}

func (s *Session) writeArrayHeader(n int) {
	s.out = redcon.AppendArray(s.out, n)
}

func (s *Session) errorIncorrectArgs(name string) {
	s.writeError("Incorrect number of arguments for " + name)
}

func (s *Session) errorIncorrectType() {
	s.writeError("Incorrect type")
}

func (s *Session) errorSyntax() {
	s.writeError("Syntax error")
}
