package gateway

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// socket is one WebSocket connection to the gateway with a write mutex for
// serializing outbound frames.
type socket struct {
	conn      net.Conn
	rw        io.ReadWriter // conn, after any bytes buffered by the handshake
	writeMu   sync.Mutex
	lastSeen  atomic.Int64 // unix nanos of the last frame read
	closeOnce sync.Once
}

// newSocket wraps a dialed connection. br is the handshake reader returned by
// ws.Dial; when non-nil it holds frames the gateway sent together with the
// upgrade response, and they are read before conn.
func newSocket(conn net.Conn, br *bufio.Reader) *socket {
	s := &socket{conn: conn}

	var rd io.Reader = conn
	if br != nil {
		if n := br.Buffered(); n > 0 {
			pending, _ := br.Peek(n)
			rd = io.MultiReader(bytes.NewReader(bytes.Clone(pending)), conn)
		}
		ws.PutReader(br)
	}
	s.rw = struct {
		io.Reader
		io.Writer
	}{rd, lockedWriter{s}}

	s.touch()
	return s
}

// write sends a masked text frame. The write mutex ensures concurrent
// replies and pings do not interleave frame bytes.
func (s *socket) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return wsutil.WriteClientMessage(s.conn, ws.OpText, data)
}

// read blocks for the next data frame. Control frames are answered inside
// wsutil, through the write mutex.
func (s *socket) read() ([]byte, ws.OpCode, error) {
	return wsutil.ReadServerData(s.rw)
}

func (s *socket) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// close closes the underlying network connection once.
func (s *socket) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

// lockedWriter writes control frame replies under the socket's write mutex.
type lockedWriter struct {
	s *socket
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.s.writeMu.Lock()
	defer w.s.writeMu.Unlock()
	return w.s.conn.Write(p)
}
