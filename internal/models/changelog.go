package models

import "time"

// Operation tags записей журнала изменений
const (
	OperationCreate = "CREATE"
	OperationUpdate = "UPDATE"
	OperationDelete = "DELETE"
)

// ChangeEntry представляет одну запись append-only журнала изменений.
// ID выдается базой строго по возрастанию; порядок ID для одной школы
// совпадает с порядком применения мутаций. Записи никогда
// не обновляются и не удаляются — удаление сущности добавляет
// новую запись DELETE, не трогая предыдущие.
type ChangeEntry struct {
	CreatedAt  time.Time `json:"created_at"`
	SchoolID   string    `json:"school_id"`   // SchoolID идентификатор школы (tenant)
	EntityType string    `json:"entity_type"` // EntityType тип сущности (EntityType* константы)
	EntityID   string    `json:"entity_id"`   // EntityID идентификатор сущности
	Operation  string    `json:"operation"`   // Operation одна из Operation* констант
	UserID     string    `json:"user_id"`     // UserID пользователь, совершивший мутацию
	ID         int64     `json:"id"`          // ID глобальный курсор (строго возрастает)
}
