package models

import (
	"encoding/json"
	"time"
)

// EntityType константы для типов синхронизируемых сущностей
const (
	EntityTypeClass      = "school_class"
	EntityTypeStudent    = "student"
	EntityTypeTask       = "task"
	EntityTypeSubmission = "submission"
)

// EntityTypes перечисляет все известные типы сущностей
// в порядке регистрации репозиториев
var EntityTypes = []string{
	EntityTypeClass,
	EntityTypeStudent,
	EntityTypeTask,
	EntityTypeSubmission,
}

// Entity представляет запись любой синхронизируемой сущности.
// Движок синхронизации не заглядывает внутрь Data — бизнес-поля
// хранятся как непрозрачный JSON. Version растет ровно на 1
// при каждом успешном обновлении и никогда не откатывается.
type Entity struct {
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ID        string          `json:"id"`        // ID уникальный идентификатор (UUID, может быть сгенерирован клиентом)
	SchoolID  string          `json:"school_id"` // SchoolID идентификатор школы (tenant)
	Data      json.RawMessage `json:"data"`      // Data сериализованные бизнес-поля
	Version   int64           `json:"version"`   // Version монотонный счетчик версий, начинается с 1
}

// Clone создает глубокую копию записи
func (e *Entity) Clone() *Entity {
	data := make(json.RawMessage, len(e.Data))
	copy(data, e.Data)

	return &Entity{
		ID:        e.ID,
		SchoolID:  e.SchoolID,
		Data:      data,
		Version:   e.Version,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// SchoolClass представляет учебный класс.
// Хранится в Data записи с типом EntityTypeClass.
type SchoolClass struct {
	ID          string `json:"id"`           // ID уникальный идентификатор класса
	Name        string `json:"name"`         // Name название класса (например, "7Б")
	Subject     string `json:"subject"`      // Subject предмет (пусто для классного руководства)
	TeacherName string `json:"teacher_name"` // TeacherName имя преподавателя
	GradeLevel  int    `json:"grade_level"`  // GradeLevel год обучения
}

// Student представляет ученика, привязанного к классу
type Student struct {
	ID        string `json:"id"`
	ClassID   string `json:"class_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Birthday  string `json:"birthday,omitempty"` // формат YYYY-MM-DD
	Notes     string `json:"notes,omitempty"`
}

// Task представляет задание для класса
type Task struct {
	ID          string `json:"id"`
	ClassID     string `json:"class_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     int64  `json:"due_date,omitempty"` // epoch seconds
}

// Submission state constants
const (
	SubmissionStateOpen      = "open"
	SubmissionStateSubmitted = "submitted"
	SubmissionStateGraded    = "graded"
)

// Submission представляет сдачу задания учеником
type Submission struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	StudentID string `json:"student_id"`
	State     string `json:"state"`
	Grade     string `json:"grade,omitempty"`
	Comment   string `json:"comment,omitempty"`
}
