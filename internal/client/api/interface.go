package api

import (
	"context"

	"github.com/iudanet/healthsync/internal/client/events"
	"github.com/iudanet/healthsync/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI определяет операции удалённого хранилища live_data
type ClientAPI interface {
	// GetLiveData читает документ; ErrNotFound, если документа ещё нет
	GetLiveData(ctx context.Context, userID string) (*api.LiveData, error)
	// UpdateLiveData применяет частичное обновление и возвращает итоговый документ
	UpdateLiveData(ctx context.Context, userID string, update api.LiveDataUpdate) (*api.LiveData, error)
	// SubscribeLiveData возвращает ленту изменений документа
	SubscribeLiveData(ctx context.Context, userID string) (<-chan api.LiveData, error)
}

var _ ClientAPI = (*Client)(nil)

//go:generate moq -out agent_mock.go . AgentAPI

// AgentAPI определяет операции локального API запущенного агента
type AgentAPI interface {
	AgentStatus(ctx context.Context) (*api.AgentStatus, error)
	Login(ctx context.Context, userID string) error
	Pair(ctx context.Context, userID string) (*api.BroadcastResponse, error)
	Unpair(ctx context.Context) error
	StartSession(ctx context.Context) (*api.BroadcastResponse, error)
	StopSession(ctx context.Context) (*api.BroadcastResponse, error)
	SubscribeEvents(ctx context.Context) (<-chan events.Event, error)
}

var _ AgentAPI = (*Client)(nil)
