package tun

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

type addr struct {
	url *url.URL
}

func (a *addr) String() string {
	return a.url.String()
}

func (a *addr) host() string {
	return a.url.Host
}

func (a *addr) uri() string {
	return a.url.RequestURI()
}

func newAddr(rawURL string) (*addr, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse address %q", rawURL)
	}
	return &addr{url: u}, nil
}

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  4 << 10,
		WriteBufferSize: 4 << 10,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

var eofReader = bytes.NewReader(nil)

// reader exposes the binary messages of a transfer as one byte stream.
// It ends with io.EOF at the eof control message.
type reader struct {
	conn *websocket.Conn
	r    io.Reader
	done bool
}

func (r *reader) Read(p []byte) (n int, err error) {
	if r.done {
		return 0, io.EOF
	}
	n, err = r.r.Read(p)
	if err != io.EOF {
		return n, err
	}
	if n > 0 {
		return n, nil
	}
	for {
		// a sender busy streaming does not answer pings, incoming data keeps the link alive
		r.conn.SetReadDeadline(time.Now().Add(readTimeout))
		var typ int
		typ, r.r, err = r.conn.NextReader()
		if err != nil {
			return 0, err
		}
		if typ == websocket.BinaryMessage {
			n, err = r.r.Read(p)
			if err == io.EOF {
				if n > 0 {
					return n, nil
				}
				// empty message
				continue
			}
			return n, err
		}

		var c control
		if err := json.NewDecoder(r.r).Decode(&c); err != nil {
			return 0, errors.Wrap(ErrProtocol, "bad control message")
		}
		if c.EOF {
			r.done = true
			return 0, io.EOF
		}
	}
}

func newReader(conn *websocket.Conn) *reader {
	return &reader{
		conn: conn,
		r:    eofReader,
	}
}

type writer struct {
	conn *websocket.Conn
}

func (w *writer) Write(p []byte) (n int, err error) {
	err = w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func newWriter(conn *websocket.Conn) *writer {
	return &writer{
		conn: conn,
	}
}

const readTimeout = time.Second * 15
const pingPeriod = time.Second * 10
const writeTimeout = time.Second

func startPing(conn *websocket.Conn, done chan struct{}) {
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout))
		case <-done:
			return
		}
	}
}
