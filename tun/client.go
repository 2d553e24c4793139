package tun

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/tutils/tcopy"
)

// Client sends transfers to a Server
type Client struct {
	opts ClientOptions
}

// NewClient creates a sending Client
func NewClient(opts ...ClientOption) *Client {
	opt := newClientOptions(opts...)
	return &Client{
		opts: *opt,
	}
}

// Send streams r to the receiver under name and waits for its receipt.
// size is announced to the receiver, -1 if unknown. onProgress gets the
// cumulative count before each chunk goes out. The receipt is checked
// against the size and SHA-256 of what was actually sent.
func (c *Client) Send(ctx context.Context, name string, r io.Reader, size int64, onProgress tcopy.ProgressFunc) (*Receipt, error) {
	if onProgress == nil {
		onProgress = tcopy.NopProgress
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.addr, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", c.opts.addr)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
		conn.SetWriteDeadline(time.Now())
	})
	defer stop()

	if err := conn.WriteJSON(Header{Name: name, Size: size}); err != nil {
		return nil, errors.Wrap(err, "send header")
	}

	hash := sha256.New()
	buf := make([]byte, c.opts.bufferSize)
	w := newWriter(conn)
	sent, err := pump(w, r, buf, func(chunk []byte, transferred int64) {
		onProgress(transferred)
		hash.Write(chunk)
	})
	if err != nil {
		return nil, errors.Wrap(ctxErr(ctx, err), "send content")
	}
	if err := conn.WriteJSON(control{EOF: true}); err != nil {
		return nil, errors.Wrap(ctxErr(ctx, err), "send eof")
	}

	var receipt Receipt
	if err := conn.ReadJSON(&receipt); err != nil {
		return nil, errors.Wrap(ctxErr(ctx, err), "read receipt")
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))

	if receipt.Error != "" {
		return &receipt, errors.Wrap(ErrRemote, receipt.Error)
	}
	sum := hex.EncodeToString(hash.Sum(nil))
	if receipt.Size != sent || receipt.SHA256 != sum {
		return &receipt, errors.Wrapf(ErrReceiptMismatch, "sent %d bytes %s, receiver stored %d bytes %s",
			sent, sum, receipt.Size, receipt.SHA256)
	}
	return &receipt, nil
}

// pump moves r into w one buffer at a time, calling before with each chunk
// and the running total ahead of writing it. Like the copier it stops at
// io.EOF or at a read yielding nothing.
func pump(w io.Writer, r io.Reader, buf []byte, before func(chunk []byte, transferred int64)) (int64, error) {
	var transferred int64
	for {
		nr, er := r.Read(buf)
		if nr > 0 {
			transferred += int64(nr)
			before(buf[:nr], transferred)
			if _, ew := w.Write(buf[:nr]); ew != nil {
				return transferred, ew
			}
		}
		if er == io.EOF || (nr == 0 && er == nil) {
			return transferred, nil
		}
		if er != nil {
			return transferred, er
		}
	}
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
