package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/healthsync/pkg/api"
)

// ErrNotFound документ отсутствует на сервере (404)
var ErrNotFound = errors.New("not found")

// StatusError ответ сервера с кодом вне диапазона 2xx
type StatusError struct {
	Message string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// Unwrap позволяет проверять 404 через errors.Is(err, ErrNotFound)
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	dialer     *websocket.Dialer
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// GetLiveData читает документ users/{userID}/live_data
func (c *Client) GetLiveData(ctx context.Context, userID string) (*api.LiveData, error) {
	var resp api.LiveData
	if err := c.doRequest(ctx, http.MethodGet, livePath(userID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get live data request failed: %w", err)
	}
	return &resp, nil
}

// UpdateLiveData выполняет частичное обновление и возвращает итоговый документ
func (c *Client) UpdateLiveData(ctx context.Context, userID string, update api.LiveDataUpdate) (*api.LiveData, error) {
	var resp api.LiveData
	if err := c.doRequest(ctx, http.MethodPatch, livePath(userID), update, &resp); err != nil {
		return nil, fmt.Errorf("update live data request failed: %w", err)
	}
	return &resp, nil
}

// SubscribeLiveData подписывается на ленту изменений документа.
// Канал закрывается при разрыве соединения или отмене ctx.
func (c *Client) SubscribeLiveData(ctx context.Context, userID string) (<-chan api.LiveData, error) {
	feedURL, err := c.websocketURL(livePath(userID) + "/feed")
	if err != nil {
		return nil, err
	}

	ws, resp, err := c.dialer.DialContext(ctx, feedURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("subscribe failed: %w", &StatusError{Code: resp.StatusCode, Message: "feed not found"})
		}
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}

	out := make(chan api.LiveData)

	// Закрываем соединение при отмене контекста, чтобы разблокировать чтение
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
			var doc api.LiveData
			if err := ws.ReadJSON(&doc); err != nil {
				return
			}
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func livePath(userID string) string {
	return "/api/v1/users/" + url.PathEscape(userID) + "/live_data"
}

func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && (errResp.Message != "" || errResp.Error != "") {
			msg := errResp.Message
			if msg == "" {
				msg = errResp.Error
			}
			return &StatusError{Code: resp.StatusCode, Message: msg}
		}
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
