// Package relaychain implements a minimal JSON-RPC-over-WebSocket client for
// a Substrate-style relay chain: storage reads at a given block hash, block
// hash lookups, and a consecutive-failure counter. It speaks the same request/response envelope the
// ethrpc package's jsonrpc sub-package models for Ethereum nodes, but over
// a single long-lived WebSocket session rather than HTTP, since Substrate
// nodes do not expose a request/response HTTP RPC endpoint for subscriptions.
package relaychain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/goware/breaker"
)

var (
	// ErrTransport is returned once a client exhausts its reconnect attempts.
	ErrTransport = fmt.Errorf("relaychain: transport error")
)

// Client is a single-owner WebSocket JSON-RPC session against a relay
// chain node. mu guards only the connection handle; concurrent Calls are
// not serialized against each other: each reads the shared connection and
// discards any response whose id is not its own.
type Client struct {
	log *slog.Logger
	url string

	mu   sync.Mutex
	conn *websocket.Conn

	nextID atomic.Uint64

	consecutiveFailures atomic.Uint32
}

// NewClient dials url and returns a ready client. The dial itself goes
// through the same retry discipline as subsequent calls.
func NewClient(ctx context.Context, url string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{log: log, url: url}
	if err := c.reconnect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) reconnect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrTransport, c.url, err)
	}

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("relaychain: connected", "url", c.url)
	return nil
}

// ConsecutiveFailures reports the number of calls that have failed in a row
// since the last success. FailureArbiter does not read it; the Reporter
// reports failed calls to the arbiter from the errors Call returns.
func (c *Client) ConsecutiveFailures() uint32 {
	return c.consecutiveFailures.Load()
}

// Call issues one JSON-RPC request and waits for its matching response.
// On failure it retries up to twice with backoff, via goware/breaker; a
// retry after a transport failure redials first, since callOnce drops the
// broken connection. After the last attempt it surfaces a Transport error.
func (c *Client) Call(ctx context.Context, method string, params []any, result any) error {
	err := breaker.Do(ctx, func() error {
		return c.callOnce(ctx, method, params, result)
	}, func(err error, dur time.Duration) {
		c.log.Warn("relaychain: retrying call", "method", method, "error", err, "backoff", dur)
	}, 500*time.Millisecond, 2, 3)

	if err != nil {
		c.consecutiveFailures.Add(1)
		return fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}

	c.consecutiveFailures.Store(0)
	return nil
}

func (c *Client) callOnce(ctx context.Context, method string, params []any, result any) error {
	req, err := NewRequest(c.nextID.Add(1), method, params)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		if err := c.reconnect(ctx); err != nil {
			return err
		}
		c.mu.Lock()
		conn = c.conn
		c.mu.Unlock()
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		conn.SetReadDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Now().Add(20 * time.Second))
		conn.SetReadDeadline(time.Now().Add(20 * time.Second))
	}

	if err := conn.WriteJSON(req); err != nil {
		c.invalidate()
		return fmt.Errorf("write: %w", err)
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			c.invalidate()
			return fmt.Errorf("read: %w", err)
		}
		if msg.ID != req.ID {
			// Unsolicited subscription push interleaved with our response; ignore.
			continue
		}
		if msg.Error != nil {
			return *msg.Error
		}
		if result == nil {
			return nil
		}
		return json.Unmarshal(msg.Result, result)
	}
}

func (c *Client) invalidate() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

// Close releases the underlying WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// CurrentBlockHash returns the hash of the chain's best head.
func (c *Client) CurrentBlockHash(ctx context.Context) (common.Hash, error) {
	var hash common.Hash
	if err := c.Call(ctx, "chain_getBlockHash", nil, &hash); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// BlockHashAt returns the hash of the block at the given height.
func (c *Client) BlockHashAt(ctx context.Context, height uint64) (common.Hash, error) {
	var hash common.Hash
	if err := c.Call(ctx, "chain_getBlockHash", []any{height}, &hash); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// Storage fetches the raw storage bytes at key, as observed at the block
// identified by at (the zero hash means the current best block).
func (c *Client) Storage(ctx context.Context, key []byte, at common.Hash) ([]byte, error) {
	params := []any{hexutil.Encode(key)}
	if at != (common.Hash{}) {
		params = append(params, at.Hex())
	}

	var raw *string
	if err := c.Call(ctx, "state_getStorage", params, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return hexutil.Decode(*raw)
}
