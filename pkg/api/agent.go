package api

// LoginRequest тело POST /agent/login и POST /agent/pair
type LoginRequest struct {
	UserID string `json:"user_id"`
}

// NodeOutcome результат отправки одному узлу
type NodeOutcome struct {
	NodeID   string `json:"node_id"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
}

// BroadcastResponse ответ команд, рассылающих сообщение всем часам
type BroadcastResponse struct {
	Nodes     []NodeOutcome `json:"nodes"`
	Delivered int           `json:"delivered"`
}

// AgentNode подключённые часы
type AgentNode struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// AgentStatus ответ GET /agent/status
type AgentStatus struct {
	Baseline            *LiveData   `json:"baseline,omitempty"`
	State               string      `json:"state"`
	UserID              string      `json:"user_id,omitempty"`
	AuthoritativeSource string      `json:"authoritative_source"`
	Nodes               []AgentNode `json:"nodes"`
	PendingSessions     int         `json:"pending_sessions"`
	Present             bool        `json:"present"`
	PairedActive        bool        `json:"paired_active"`
	Sampling            bool        `json:"sampling"`
	SensorAvailable     bool        `json:"sensor_available"`
}
