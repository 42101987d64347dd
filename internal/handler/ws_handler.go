package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/cinequiz/internal/domain/entity"
	"github.com/yourusername/cinequiz/internal/middleware"
	apperrors "github.com/yourusername/cinequiz/internal/pkg/errors"
	"github.com/yourusername/cinequiz/internal/service/session"
	"github.com/yourusername/cinequiz/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения игровых сессий
type WSHandler struct {
	sessions  *session.Manager
	wsManager *websocket.Manager
	upgrader  gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins синхронизирован с CORS; пустой Origin (мобильные клиенты, curl) разрешён.
func NewWSHandler(sessions *session.Manager, wsManager *websocket.Manager, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	h := &WSHandler{
		sessions:  sessions,
		wsManager: wsManager,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] || allowed[origin] {
					return true
				}
				log.Printf("[WSHandler] Rejected unauthorized origin: %s", origin)
				return false
			},
			EnableCompression: true,
		},
	}

	// Регистрируем обработчики команд один раз при создании обработчика
	h.registerMessageHandlers()
	return h
}

// HandleConnection подключает клиента к потоку состояний сессии
// GET /ws/sessions/:id
func (h *WSHandler) HandleConnection(c *gin.Context) {
	s, err := h.sessions.Get(c.GetString(middleware.SessionIDKey))
	if err != nil {
		handleSessionError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Error upgrading connection: %v", err)
		return
	}

	client := websocket.NewClient(h.wsManager.Hub(), conn, s.ID)
	client.StartPumps(h.wsManager.HandleMessage)

	go h.streamStates(s, client)
}

// streamStates пересылает клиенту каждое новое состояние, пока соединение живо
func (h *WSHandler) streamStates(s *session.Session, client *websocket.Client) {
	states, unsubscribe := s.Controller.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-client.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if err := h.wsManager.SendEvent(client, websocket.PROMPT_STATE, stateResponse(s, state)); err != nil {
				log.Printf("[WSHandler] Не удалось отправить состояние сессии %s: %v", s.ID, err)
				if client.IsSendClosed() {
					return
				}
			}
		}
	}
}

// loadCommand - данные команды prompt:load
type loadCommand struct {
	Genres *[]int `json:"genres"`
	Count  int    `json:"count"`
}

// resetCommand - данные команды prompt:reset
type resetCommand struct {
	Group              string `json:"group"`
	ResetFailureCounts bool   `json:"reset_failure_counts"`
}

// groupCommand - данные команды prompt:group
type groupCommand struct {
	Group string `json:"group"`
}

// registerMessageHandlers регистрирует обработчики команд клиента.
// Ошибки команд отправляются клиенту и не закрывают соединение.
func (h *WSHandler) registerMessageHandlers() {
	h.wsManager.RegisterHandler(websocket.PROMPT_NEXT, func(_ json.RawMessage, client *websocket.Client) error {
		s, ok := h.clientSession(client)
		if !ok {
			return nil
		}
		s.Controller.NextPrompt()
		return nil
	})

	h.wsManager.RegisterHandler(websocket.PROMPT_LOAD, func(data json.RawMessage, client *websocket.Client) error {
		var cmd loadCommand
		if err := decodeCommand(data, &cmd); err != nil {
			h.sendCommandError(client, err)
			return nil
		}

		var genres []int
		if cmd.Genres != nil {
			genres = append([]int{}, (*cmd.Genres)...)
		}
		done, err := h.sessions.StartLoading(client.SessionID, genres, cmd.Count)
		if err != nil {
			h.sendCommandError(client, err)
			return nil
		}

		go h.reportLoadResult(client.SessionID, done)
		return nil
	})

	h.wsManager.RegisterHandler(websocket.PROMPT_CANCEL, func(_ json.RawMessage, client *websocket.Client) error {
		s, ok := h.clientSession(client)
		if !ok {
			return nil
		}
		s.Controller.CancelPrompts()
		return nil
	})

	h.wsManager.RegisterHandler(websocket.PROMPT_RESET, func(data json.RawMessage, client *websocket.Client) error {
		var cmd resetCommand
		if err := decodeCommand(data, &cmd); err != nil {
			h.sendCommandError(client, err)
			return nil
		}
		s, ok := h.clientSession(client)
		if !ok {
			return nil
		}

		group := s.Controller.ActiveGroup()
		if cmd.Group != "" {
			parsed, err := entity.ParsePromptGroup(cmd.Group)
			if err != nil {
				h.sendCommandError(client, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
				return nil
			}
			group = parsed
		}
		if err := s.Controller.ResetPrompts(group, cmd.ResetFailureCounts); err != nil {
			h.sendCommandError(client, err)
		}
		return nil
	})

	h.wsManager.RegisterHandler(websocket.PROMPT_GROUP, func(data json.RawMessage, client *websocket.Client) error {
		var cmd groupCommand
		if err := decodeCommand(data, &cmd); err != nil {
			h.sendCommandError(client, err)
			return nil
		}
		group, err := entity.ParsePromptGroup(cmd.Group)
		if err != nil {
			h.sendCommandError(client, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
			return nil
		}
		if err := h.sessions.UpdateGroup(client.SessionID, group); err != nil {
			h.sendCommandError(client, err)
		}
		return nil
	})
}

// reportLoadResult сообщает всем соединениям сессии, чем закончилась загрузка
func (h *WSHandler) reportLoadResult(sessionID string, done <-chan error) {
	err := <-done
	result := gin.H{"cancelled": false}
	switch {
	case errors.Is(err, context.Canceled):
		result["cancelled"] = true
	case err != nil:
		result["error"] = err.Error()
	}
	h.wsManager.SendEventToSession(sessionID, websocket.PROMPT_LOADED, result)
}

func (h *WSHandler) clientSession(client *websocket.Client) (*session.Session, bool) {
	s, err := h.sessions.Get(client.SessionID)
	if err != nil {
		h.sendCommandError(client, err)
		return nil, false
	}
	return s, true
}

// sendCommandError переводит ошибку сервиса в код server:error
func (h *WSHandler) sendCommandError(client *websocket.Client, err error) {
	code := "internal_error"
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = "not_found"
	case errors.Is(err, apperrors.ErrValidation):
		code = "validation_error"
	case errors.Is(err, apperrors.ErrRateLimited), errors.Is(err, apperrors.ErrGateClosed):
		code = "catalog_unavailable"
	}
	h.wsManager.SendErrorToClient(client, code, err.Error())
}

// decodeCommand разбирает data команды; пустые данные допустимы
func decodeCommand(data json.RawMessage, dest interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: invalid command data: %v", apperrors.ErrValidation, err)
	}
	return nil
}
