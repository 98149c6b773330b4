package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	maxReconnectAttempts = 5
	maxBackoff           = 30 * time.Second
	publishTimeout       = 2 * time.Second
)

// ErrNotConnected is returned by PublishEvent while the broker is
// unreachable. A reconnect is already running in the background.
var ErrNotConnected = errors.New("AMQP connection not available")

// Client publishes ledger events to a topic exchange. Publishing never
// waits for a reconnect: a lost connection is re-dialed by a single
// background goroutine with exponential backoff.
type Client struct {
	mu           sync.Mutex
	url          string
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string

	reconnecting bool
	closed       bool
	ctx          context.Context // cancelled by Close
	cancel       context.CancelFunc
	wg           sync.WaitGroup

	dial  func(url string) (*amqp091.Connection, error)
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		dial:         amqp091.Dial,
		sleep:        sleepContext,
	}

	conn, channel, err := client.open()
	if err != nil {
		return nil, err
	}
	client.conn = conn
	client.channel = channel

	return client, nil
}

// open dials the broker and declares the exchange and queue. It does not
// touch the client's state, so it runs without holding c.mu.
func (c *Client) open() (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := c.dial(c.url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return conn, channel, nil
}

func (c *Client) setup(channel *amqp091.Channel) error {
	err := channel.ExchangeDeclare(
		c.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Every ledger event lands in the queue.
	err = channel.QueueBind(
		c.queueName,    // queue name
		"#",            // routing key
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishEvent makes a single publish attempt bounded by publishTimeout.
// When the connection is down it returns ErrNotConnected at once and leaves
// the reconnect to the background.
func (c *Client) PublishEvent(ctx context.Context, event LedgerEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.Lock()
	channel := c.channel
	if channel == nil || channel.IsClosed() {
		c.startReconnectLocked()
		c.mu.Unlock()
		return fmt.Errorf("publish %s: %w", event.Type, ErrNotConnected)
	}
	c.mu.Unlock()

	if err := c.publish(ctx, channel, event.Type, body); err != nil {
		if isConnectionError(err) {
			c.mu.Lock()
			if c.channel == channel {
				c.closeLocked()
			}
			c.startReconnectLocked()
			c.mu.Unlock()
		}
		return err
	}

	slog.InfoContext(ctx, "Published ledger event",
		"type", event.Type,
		"debt_id", event.DebtID,
		"exchange", c.exchangeName)
	return nil
}

// startReconnectLocked launches the reconnect goroutine unless one is
// already running or the client is closed. c.mu must be held.
func (c *Client) startReconnectLocked() {
	if c.reconnecting || c.closed {
		return
	}
	if c.cancel == nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}
	c.reconnecting = true
	c.wg.Add(1)
	go func(ctx context.Context) {
		defer c.wg.Done()
		c.reconnect(ctx)
	}(c.ctx)
}

// reconnect dials with exponential backoff until it succeeds, gives up
// after maxReconnectAttempts, or ctx is cancelled by Close.
func (c *Client) reconnect(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	for attempt := 0; attempt < maxReconnectAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, exponentialBackoff(attempt-1)); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		conn, channel, err := c.open()
		if err != nil {
			slog.Warn("AMQP reconnect failed", "attempt", attempt+1, "error", err)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			channel.Close()
			conn.Close()
			return
		}
		c.conn = conn
		c.channel = channel
		c.mu.Unlock()
		slog.Info("AMQP reconnected", "attempt", attempt+1, "exchange", c.exchangeName)
		return
	}

	slog.Error("AMQP reconnect abandoned, next publish retries", "attempts", maxReconnectAttempts)
}

func (c *Client) publish(ctx context.Context, channel *amqp091.Channel, routingKey EventType, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := channel.PublishWithContext(
		ctx,
		c.exchangeName,     // exchange
		string(routingKey), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close stops any running reconnect and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
