package channel

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client подключение узла (часов) к хабу агента
type Client struct {
	ws      *websocket.Conn
	nodeID  string
	writeMu sync.Mutex
}

// Dial подключается к хабу по адресу baseURL (ws://host:port/wear).
// Схемы http/https заменяются на ws/wss, пустой путь - на /wear.
func Dial(ctx context.Context, baseURL, nodeID, name string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid hub url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/wear"
	}
	q := u.Query()
	q.Set("node", nodeID)
	if name != "" {
		q.Set("name", name)
	}
	u.RawQuery = q.Encode()

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub: %w", err)
	}
	ws.SetReadLimit(maxFrameSize)

	return &Client{ws: ws, nodeID: nodeID}, nil
}

// NodeID возвращает идентификатор узла
func (c *Client) NodeID() string {
	return c.nodeID
}

// Send отправляет сообщение агенту
func (c *Client) Send(ctx context.Context, path string, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := c.ws.WriteJSON(Frame{Path: path, NodeID: c.nodeID, Data: payload}); err != nil {
		return fmt.Errorf("failed to send %s: %w", path, err)
	}
	return nil
}

// Receive блокируется до следующего сообщения от агента
func (c *Client) Receive() (Message, error) {
	var frame Frame
	if err := c.ws.ReadJSON(&frame); err != nil {
		return Message{}, err
	}
	return Message{NodeID: c.nodeID, Path: NormalizePath(frame.Path), Data: frame.Data}, nil
}

// Close закрывает подключение
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.ws.Close()
}
