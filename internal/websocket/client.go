package websocket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящей команды
	maxMessageSize = 1024

	// Размер буфера канала исходящих сообщений
	defaultClientBufferSize = 32

	// Максимальное количество переполнений буфера до отключения
	maxBufferWarnings = 3
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// Client является посредником между WebSocket соединением и игровой сессией.
type Client struct {
	// ID игровой сессии
	SessionID string

	// Уникальный ID для каждого соединения
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn

	// Буферизованный канал для исходящих сообщений
	send chan []byte

	// Флаг, указывающий что канал send закрыт (для предотвращения panic)
	sendClosed atomic.Bool

	// done закрывается, когда соединение завершено
	done     chan struct{}
	doneOnce sync.Once

	bufferWarningCount atomic.Int32
}

// NewClient создает нового клиента
func NewClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		SessionID:    sessionID,
		ConnectionID: uuid.New().String(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, defaultClientBufferSize),
		done:         make(chan struct{}),
	}
}

// Done возвращает канал, который закрывается при отключении клиента
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// SendJSON ставит событие в очередь отправки. Не блокируется: при переполнении
// буфера событие отбрасывается, а после maxBufferWarnings переполнений клиент отключается.
func (c *Client) SendJSON(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal websocket event: %w", err)
	}
	return c.sendBytes(payload)
}

func (c *Client) sendBytes(payload []byte) (err error) {
	if c.sendClosed.Load() {
		return fmt.Errorf("client %s: send channel closed", c.ConnectionID)
	}
	// close(send) может произойти между проверкой и отправкой
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("client %s: send channel closed", c.ConnectionID)
		}
	}()

	select {
	case c.send <- payload:
		recordMessage(directionOut, messageTypeFromBytes(payload))
		return nil
	default:
		warnings := c.bufferWarningCount.Add(1)
		log.Printf("[WSClient] Буфер клиента %s (сессия %s) переполнен, предупреждение %d/%d", c.ConnectionID, c.SessionID, warnings, maxBufferWarnings)
		if warnings >= maxBufferWarnings {
			c.CloseSend()
		}
		return fmt.Errorf("client %s: send buffer full", c.ConnectionID)
	}
}

// readPump читает сообщения от клиента и передает их обработчику
func (c *Client) readPump(messageHandler func(message []byte, client *Client) error) {
	defer func() {
		log.Printf("[WSClient] Read pump stopped for session %s, conn %s", c.SessionID, c.ConnectionID)
		c.hub.Unregister(c)
		c.markDone()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WSClient] Read error (session %s, conn %s): %v", c.SessionID, c.ConnectionID, err)
			}
			return
		}
		recordMessage(directionIn, messageTypeFromBytes(message))

		if handlerErr := safeHandleMessage(message, c, messageHandler); handlerErr != nil {
			// Ошибка обработчика фатальна для соединения
			log.Printf("[WSClient] Handler error (session %s, conn %s): %v. Closing connection.", c.SessionID, c.ConnectionID, handlerErr)
			return
		}

		// Клиент читает: сбрасываем счетчик переполнений
		c.bufferWarningCount.Store(0)
	}
}

// safeHandleMessage - обертка для вызова обработчика с recover
func safeHandleMessage(message []byte, client *Client, messageHandler func(message []byte, client *Client) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WSClient] PANIC recovered in message handler for session %s, conn %s. Panic: %v\nStack trace:\n%s",
				client.SessionID, client.ConnectionID, r, string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
	if messageHandler == nil {
		return nil
	}
	return messageHandler(message, client)
}

// writePump отправляет сообщения клиенту из канала send
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.markDone()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// Канал send закрыт: прощаемся с клиентом
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WSClient] Write error (session %s, conn %s): %v", c.SessionID, c.ConnectionID, err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// StartPumps регистрирует клиента в хабе и запускает горутины чтения и записи
func (c *Client) StartPumps(messageHandler func(message []byte, client *Client) error) {
	if c.SessionID == "" {
		log.Printf("[WSClient] Client has no session, closing connection")
		c.conn.Close()
		return
	}
	c.hub.Register(c)

	go c.writePump()
	go c.readPump(messageHandler)
}

// CloseSend безопасно закрывает канал send (только один раз).
// Возвращает true, если канал был закрыт этим вызовом.
func (c *Client) CloseSend() bool {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
		return true
	}
	return false
}

// IsSendClosed проверяет, закрыт ли канал send
func (c *Client) IsSendClosed() bool {
	return c.sendClosed.Load()
}

func (c *Client) markDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

// messageTypeFromBytes пытается извлечь тип сообщения из JSON байтов
func messageTypeFromBytes(message []byte) string {
	var event struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(message, &event) == nil && event.Type != "" {
		return event.Type
	}
	return "unknown"
}
