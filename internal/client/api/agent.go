package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/healthsync/internal/client/events"
	"github.com/iudanet/healthsync/pkg/api"
)

// Методы локального API запущенного агента (/agent/*).
// Используют тот же Client, что и запросы к серверу.

// AgentStatus возвращает состояние агента
func (c *Client) AgentStatus(ctx context.Context) (*api.AgentStatus, error) {
	var resp api.AgentStatus
	if err := c.doRequest(ctx, http.MethodGet, "/agent/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("get status failed: %w", err)
	}
	return &resp, nil
}

// Login сохраняет идентификатор пользователя в агенте
func (c *Client) Login(ctx context.Context, userID string) error {
	if err := c.doRequest(ctx, http.MethodPost, "/agent/login", api.LoginRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

// Pair сопрягает все подключённые часы с userID
func (c *Client) Pair(ctx context.Context, userID string) (*api.BroadcastResponse, error) {
	var resp api.BroadcastResponse
	if err := c.doRequest(ctx, http.MethodPost, "/agent/pair", api.LoginRequest{UserID: userID}, &resp); err != nil {
		return nil, fmt.Errorf("pair failed: %w", err)
	}
	return &resp, nil
}

// Unpair снимает флаг сопряжения
func (c *Client) Unpair(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/agent/unpair", nil, nil); err != nil {
		return fmt.Errorf("unpair failed: %w", err)
	}
	return nil
}

// StartSession отправляет часам сигнал начала тренировки
func (c *Client) StartSession(ctx context.Context) (*api.BroadcastResponse, error) {
	var resp api.BroadcastResponse
	if err := c.doRequest(ctx, http.MethodPost, "/agent/session/start", nil, &resp); err != nil {
		return nil, fmt.Errorf("start session failed: %w", err)
	}
	return &resp, nil
}

// StopSession отправляет часам сигнал окончания тренировки
func (c *Client) StopSession(ctx context.Context) (*api.BroadcastResponse, error) {
	var resp api.BroadcastResponse
	if err := c.doRequest(ctx, http.MethodPost, "/agent/session/stop", nil, &resp); err != nil {
		return nil, fmt.Errorf("stop session failed: %w", err)
	}
	return &resp, nil
}

// SubscribeEvents подписывается на события хоста.
// Канал закрывается при разрыве соединения или отмене ctx.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan events.Event, error) {
	wsURL, err := c.websocketURL("/agent/events")
	if err != nil {
		return nil, err
	}

	ws, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe to events failed: %w", err)
	}

	out := make(chan events.Event)
	stop := context.AfterFunc(ctx, func() {
		_ = ws.Close()
	})

	go func() {
		defer close(out)
		defer stop()
		defer func() {
			_ = ws.Close()
		}()

		for {
			var ev events.Event
			if err := ws.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
