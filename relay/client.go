// Package relay talks to the wallet core over a WebSocket JSON-RPC channel.
//
// Calls are correlated with responses by request id. Frames without an id are
// pushed updates and are delivered on Updates.
package relay

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
)

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
	updateBuffer        = 64
)

// ErrClosed is returned by calls on a closed or dropped connection.
var ErrClosed = errors.New("relay connection closed")

// RemoteError is an error object returned by the relay.
type RemoteError struct {
	Code    int64
	Message string
}

func (e *RemoteError) Error() string {
	return "relay error " + strconv.FormatInt(e.Code, 10) + ": " + e.Message
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	result gjson.Result
	err    error
}

// Option configures Dial.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHeader adds headers to the handshake request.
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h }
}

// WithPingInterval sets the keepalive interval. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) { c.pingInterval = d }
}

// Client is a connected relay session.
type Client struct {
	conn         *websocket.Conn
	logger       *log.Logger
	header       http.Header
	pingInterval time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan response

	updates chan Update
	closing chan struct{}
	done    chan struct{}
	closed  atomic.Bool
}

// Dial connects to the relay at url.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	c := &Client{
		logger:       log.New(io.Discard),
		pingInterval: defaultPingInterval,
		pending:      make(map[string]chan response),
		updates:      make(chan Update, updateBuffer),
		closing:      make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithPrefix("relay")

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, c.header)
	if err != nil {
		return nil, errors.Wrapf(err, "dial relay %s", url)
	}
	c.conn = conn
	c.logger.Info("connected", "url", url)

	if c.pingInterval > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
		})
		go c.pingLoop()
	}
	go c.readLoop()
	return c, nil
}

// Updates delivers pushed updates. It is closed when the connection drops.
func (c *Client) Updates() <-chan Update { return c.updates }

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close closes the connection. Pending calls fail with ErrClosed.
func (c *Client) Close() error {
	if !c.closed.CAS(false, true) {
		return nil
	}
	close(c.closing)
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// call sends method and waits for its response.
func (c *Client) call(ctx context.Context, method string, params any) (gjson.Result, error) {
	if c.closed.Load() {
		return gjson.Result{}, ErrClosed
	}
	id := uuid.NewString()
	ch := make(chan response, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	payload, err := json.Marshal(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "encode %s", method)
	}
	c.logger.Debug("call", "method", method, "id", id)
	if err := c.write(payload); err != nil {
		return gjson.Result{}, errors.Wrapf(err, "send %s", method)
	}

	select {
	case resp := <-ch:
		return resp.result, resp.err
	case <-c.done:
		select {
		case resp := <-ch:
			return resp.result, resp.err
		default:
			return gjson.Result{}, ErrClosed
		}
	case <-ctx.Done():
		return gjson.Result{}, errors.Wrapf(ctx.Err(), "waiting for %s", method)
	}
}

func (c *Client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	defer func() {
		c.closed.Store(true)
		close(c.done)
		close(c.updates)
		_ = c.conn.Close()
	}()
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warn("connection lost", "err", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			c.logger.Debug("ignoring frame", "type", msgType)
			continue
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	if !gjson.ValidBytes(data) {
		c.logger.Warn("invalid frame", "frame", string(data))
		return
	}
	frame := gjson.ParseBytes(data)

	if id := frame.Get("id"); id.Exists() {
		c.mu.Lock()
		ch, ok := c.pending[id.String()]
		delete(c.pending, id.String())
		c.mu.Unlock()
		if !ok {
			c.logger.Warn("response for unknown call", "id", id.String())
			return
		}
		if e := frame.Get("error"); e.Exists() && e.Type != gjson.Null {
			ch <- response{err: &RemoteError{Code: e.Get("code").Int(), Message: e.Get("message").String()}}
			return
		}
		ch <- response{result: frame.Get("result")}
		return
	}

	if frame.Get("method").String() != "update" {
		c.logger.Debug("ignoring frame", "method", frame.Get("method").String())
		return
	}
	update, err := decodeUpdate(frame.Get("params"))
	if err != nil {
		c.logger.Warn("dropping update", "err", err)
		return
	}
	c.logger.Debug("update", "type", update.Type)
	select {
	case c.updates <- update:
	case <-c.closing:
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("ping failed", "err", err)
				return
			}
		case <-c.done:
			return
		}
	}
}
