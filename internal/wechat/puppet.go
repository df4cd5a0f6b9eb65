package wechat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("wechat: gateway closed")

const (
	writeWait    = 10 * time.Second
	pongWait     = 90 * time.Second
	pingInterval = 30 * time.Second
)

// frame is the JSON envelope on the puppet-bridge websocket. Requests carry
// id+method+params; the bridge answers with the same id (and an error string
// on failure) and pushes events as event+payload.
type frame struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Error  string          `json:"error,omitempty"`

	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type sendTextParams struct {
	RoomID     string   `json:"room_id,omitempty"`
	ContactID  string   `json:"contact_id,omitempty"`
	Text       string   `json:"text"`
	MentionIDs []string `json:"mention_ids,omitempty"`
}

type contactPayload struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type roomPayload struct {
	ID    string `json:"id"`
	Topic string `json:"topic,omitempty"`
}

type scanPayload struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
}

type messagePayload struct {
	ID          string          `json:"id,omitempty"`
	Text        string          `json:"text,omitempty"`
	Timestamp   int64           `json:"timestamp,omitempty"` // unix seconds
	Self        bool            `json:"self,omitempty"`
	MentionSelf bool            `json:"mention_self,omitempty"`
	Sender      *contactPayload `json:"sender,omitempty"`
	Room        *roomPayload    `json:"room,omitempty"`
}

// Client is a Gateway over one puppet-bridge websocket connection.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
	events chan Event

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan error

	closeOnce sync.Once
	done      chan struct{}
}

func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("wechat: puppet url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("wechat: dial %s (http %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("wechat: dial %s: %w", url, err)
	}
	c := &Client{
		conn:    conn,
		logger:  logger,
		events:  make(chan Event, 64),
		pending: make(map[string]chan error),
		done:    make(chan struct{}),
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) SendRoomText(ctx context.Context, roomID, text string, mention *Contact) error {
	params := sendTextParams{RoomID: roomID, Text: text}
	if mention != nil && mention.ID != "" {
		params.MentionIDs = []string{mention.ID}
	}
	return c.call(ctx, "sendRoomText", params)
}

func (c *Client) SendContactText(ctx context.Context, contactID, text string) error {
	return c.call(ctx, "sendContactText", sendTextParams{ContactID: contactID, Text: text})
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) call(ctx context.Context, method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	ack := make(chan error, 1)

	c.pendingMu.Lock()
	c.pending[id] = ack
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.write(frame{ID: id, Method: method, Params: raw}); err != nil {
		return err
	}

	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Client) write(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(f)
}

func (c *Client) readLoop() {
	defer close(c.events)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			select {
			case <-c.done:
			default:
				c.events <- Event{Err: fmt.Errorf("wechat: read: %w", err)}
			}
			return
		}
		if f.Event != "" {
			if ev, ok := decodeEvent(f); ok {
				c.events <- ev
			} else {
				c.logger.Debug("wechat_event_ignored", "event", f.Event)
			}
			continue
		}
		if f.ID != "" {
			c.resolve(f.ID, f.Error)
		}
	}
}

func (c *Client) resolve(id, errText string) {
	c.pendingMu.Lock()
	ack, ok := c.pending[id]
	delete(c.pending, id)
	c.pendingMu.Unlock()
	if !ok {
		return
	}
	if errText != "" {
		ack <- fmt.Errorf("wechat: %s", errText)
	} else {
		ack <- nil
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func decodeEvent(f frame) (Event, bool) {
	switch f.Event {
	case "scan":
		var p scanPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return Event{}, false
		}
		return Event{Scan: &ScanEvent{URL: p.URL, Status: p.Status}}, true
	case "login":
		var p contactPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return Event{}, false
		}
		return Event{Login: &Contact{ID: p.ID, Name: p.Name}}, true
	case "logout":
		return Event{Logout: true}, true
	case "message":
		var p messagePayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return Event{}, false
		}
		msg := &Message{
			ID:          p.ID,
			Text:        p.Text,
			Self:        p.Self,
			MentionSelf: p.MentionSelf,
		}
		if p.Timestamp > 0 {
			msg.Timestamp = time.Unix(p.Timestamp, 0)
		}
		if p.Sender != nil {
			msg.Sender = &Contact{ID: p.Sender.ID, Name: p.Sender.Name}
		}
		if p.Room != nil {
			msg.Room = &Room{ID: p.Room.ID, Topic: p.Room.Topic}
		}
		return Event{Message: msg}, true
	default:
		return Event{}, false
	}
}
