package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"crypto-backtest-lab/internal/domain"
	"crypto-backtest-lab/internal/observability"
)

// FeedConfig configures the live trade feed behavior.
type FeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultFeedConfig returns default trade feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// TradeFeed streams live trades for one symbol from a Bitstamp-style
// websocket endpoint as price records. The feed reconnects with
// exponential backoff until the context is cancelled or Close is
// called.
type TradeFeed struct {
	endpoint string
	symbol   string
	config   FeedConfig
	logger   *log.Logger

	closed atomic.Bool
	done   chan struct{}
}

// NewTradeFeed creates a trade feed for the symbol.
func NewTradeFeed(endpoint, symbol string, logger *log.Logger, config *FeedConfig) *TradeFeed {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}
	return &TradeFeed{
		endpoint: endpoint,
		symbol:   symbol,
		config:   cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Records starts the feed and returns the record channel. The channel
// is closed when the context is cancelled or the feed is closed.
func (f *TradeFeed) Records(ctx context.Context) <-chan domain.PriceRecord {
	out := make(chan domain.PriceRecord, 1024)
	go f.run(ctx, out)
	return out
}

// Close stops the feed.
func (f *TradeFeed) Close() {
	if f.closed.Swap(true) {
		return
	}
	close(f.done)
}

func (f *TradeFeed) run(ctx context.Context, out chan<- domain.PriceRecord) {
	defer close(out)

	delay := f.config.ReconnectDelay
	for {
		if f.stopped(ctx) {
			return
		}

		err := f.streamOnce(ctx, out)
		if err == nil || f.stopped(ctx) {
			return
		}

		f.logger.Printf("feed %s: %v, reconnecting in %s", f.symbol, err, delay)
		observability.RecordWSReconnect()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		case <-f.done:
			return
		}
		delay *= 2
		if delay > f.config.MaxReconnectDelay {
			delay = f.config.MaxReconnectDelay
		}
	}
}

// streamOnce dials, subscribes and pumps trades until the connection
// drops. A nil return means a clean shutdown.
func (f *TradeFeed) streamOnce(ctx context.Context, out chan<- domain.PriceRecord) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: f.config.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Drop the read loop when the feed shuts down.
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		conn.Close()
	}()

	sub := wsSubscribeRequest{Event: "bts:subscribe"}
	sub.Data.Channel = "live_trades_" + f.symbol
	conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	f.logger.Printf("feed %s: subscribed to %s", f.symbol, f.endpoint)

	for {
		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if f.stopped(ctx) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Event {
		case "trade":
			started := time.Now()
			record, err := parseTrade(msg.Data)
			if err != nil {
				observability.RecordIngestionError("ws", "parse_trade")
				f.logger.Printf("feed %s: drop trade: %v", f.symbol, err)
				continue
			}
			observability.RecordWSLatency(time.Since(started).Seconds())
			select {
			case out <- record:
			case <-ctx.Done():
				return nil
			case <-f.done:
				return nil
			}
		case "bts:request_reconnect":
			return fmt.Errorf("server requested reconnect")
		}
	}
}

func (f *TradeFeed) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-f.done:
		return true
	default:
		return false
	}
}

type wsSubscribeRequest struct {
	Event string `json:"event"`
	Data  struct {
		Channel string `json:"channel"`
	} `json:"data"`
}

type wsMessage struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// wsTrade is the live_trades payload. Timestamps arrive as decimal
// strings of epoch seconds.
type wsTrade struct {
	Timestamp string  `json:"timestamp"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
}

func parseTrade(data json.RawMessage) (domain.PriceRecord, error) {
	var trade wsTrade
	if err := json.Unmarshal(data, &trade); err != nil {
		return domain.PriceRecord{}, fmt.Errorf("unmarshal trade: %w", err)
	}
	ts, err := strconv.ParseInt(trade.Timestamp, 10, 64)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("trade timestamp %q: %w", trade.Timestamp, err)
	}
	return domain.PriceRecord{
		TimestampSec: ts,
		Price:        trade.Price,
		Volume:       trade.Amount,
	}, nil
}
