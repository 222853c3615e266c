package api

// PulledChange представляет одну запись журнала изменений, отдаваемую клиенту.
// Data содержит актуальный снимок сущности на момент запроса
// (null для DELETE или если сущность уже удалена).
type PulledChange struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Operation  string `json:"operation"`
	UserID     string `json:"user_id"`
	Data       []byte `json:"data,omitempty"`
	ChangeID   int64  `json:"change_id"`
	Timestamp  int64  `json:"timestamp"`
}

// PullResponse представляет ответ сервера на запрос изменений.
// LastSyncID нужно сохранить и передать как курсор в следующем запросе.
// HasMore=true означает, что страница была заполнена целиком
// и клиент должен сразу запросить следующую.
type PullResponse struct {
	Changes    []PulledChange `json:"changes"`
	LastSyncID int64          `json:"last_sync_id"`
	HasMore    bool           `json:"has_more"`
}

// ChangeRequest представляет одну локальную мутацию клиента.
// Version — версия, которую клиент наблюдал последней
// (1 для новой сущности). Data обязательна для CREATE/UPDATE,
// отсутствует для DELETE.
type ChangeRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Operation  string `json:"operation"`
	Data       []byte `json:"data,omitempty"`
	Version    int64  `json:"version"`
}

// PushRequest представляет батч локальных изменений клиента.
// Изменения применяются строго в порядке следования.
type PushRequest struct {
	Changes []ChangeRequest `json:"changes"`
}

// ChangeResult представляет результат применения одного изменения.
// Conflict=true — сигнал клиенту перейти в ручное разрешение конфликта,
// а не повторять запрос.
type ChangeResult struct {
	EntityID     string `json:"entity_id"`
	ErrorMessage string `json:"error_message,omitempty"`
	Success      bool   `json:"success"`
	Conflict     bool   `json:"conflict"`
}

// PushResponse представляет ответ сервера на батч изменений.
// Results идут в том же порядке, что и изменения в запросе.
type PushResponse struct {
	Results      []ChangeResult `json:"results"`
	SuccessCount int            `json:"success_count"`
	FailureCount int            `json:"failure_count"`
}
