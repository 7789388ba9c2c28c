package api

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// HealthResponse ответ GET /api/v1/health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
