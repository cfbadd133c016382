package websocketPkg

import (
	"DebrisDetector/internal/api/detection"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const DefaultStateURL = "ws://localhost:3000/api/v1/detection/ws"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errNotConnected = errors.New("not connected to the state stream")

// IStateStream follows the workflow state published on the detection websocket.
type IStateStream interface {
	Reconnect(ctx context.Context) error
	IsConnected() bool
	Stream(ctx context.Context, handle func(detection.StateResponse) error) error
	CloseConnection()
}

type stateStreamClient struct {
	url           string
	log           *logrus.Logger
	conn          *websocket.Conn
	mu            sync.Mutex
	pingInterval  time.Duration
	readTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration
}

func NewStateStreamClient(url string, logger *logrus.Logger) IStateStream {
	if url == "" {
		url = os.Getenv("DETECTION_STATE_URL")
	}
	if url == "" {
		url = DefaultStateURL
	}

	return &stateStreamClient{
		url:           url,
		log:           logger,
		pingInterval:  30 * time.Second,
		readTimeout:   60 * time.Second,
		writeTimeout:  5 * time.Second,
		retryInterval: 2 * time.Second,
	}
}

func (c *stateStreamClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

func (c *stateStreamClient) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	c.log.Debugf("Connecting to state stream at %s", c.url)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	})

	c.conn = conn
	go c.keepAlive(conn)

	c.log.Infof("Connected to state stream at %s", c.url)

	return nil
}

func (c *stateStreamClient) CloseConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}

	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout),
	)
	c.conn.Close()
	c.conn = nil
}

// Stream hands every state message to handle until ctx is done or handle
// returns an error. Dropped connections are re-dialed.
func (c *stateStreamClient) Stream(ctx context.Context, handle func(detection.StateResponse) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.getConnection()
		if err != nil {
			if err := c.Reconnect(ctx); err != nil {
				c.log.Warnf("State stream unavailable: %v", err)
				if !c.wait(ctx) {
					return ctx.Err()
				}
			}
			continue
		}

		stop := context.AfterFunc(ctx, func() { conn.Close() })
		_, message, err := conn.ReadMessage()
		stop()

		if err != nil {
			c.drop(conn)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warnf("State stream read failed: %v", err)
			} else {
				c.log.Infof("State stream closed: %v", err)
			}
			if !c.wait(ctx) {
				return ctx.Err()
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(c.readTimeout))

		var state detection.StateResponse
		if err := json.Unmarshal(message, &state); err != nil {
			c.log.Warnf("Skipping malformed state message: %v", err)
			continue
		}

		if err := handle(state); err != nil {
			return err
		}
	}
}

func (c *stateStreamClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, errNotConnected
	}

	return c.conn, nil
}

func (c *stateStreamClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

func (c *stateStreamClient) wait(ctx context.Context) bool {
	timer := time.NewTimer(c.retryInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *stateStreamClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Warnf("Ping failed, marking state stream as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}
