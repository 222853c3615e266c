package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/schoolsync/internal/models"
)

// cmdAdd создает запись локально и ставит ее в очередь на отправку
func (c *Cli) cmdAdd(ctx context.Context, entityType string) error {
	record, err := promptRecord(entityType, nil)
	if err != nil {
		return err
	}

	entity, err := c.dataService.Create(ctx, entityType, record)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s %s (queued for sync)\n", entityType, entity.ID)
	return nil
}

// cmdList выводит локальные записи типа
func (c *Cli) cmdList(ctx context.Context, entityType string) error {
	entities, err := c.dataService.List(ctx, entityType)
	if err != nil {
		return err
	}

	if len(entities) == 0 {
		fmt.Println("No records")
		return nil
	}

	for _, e := range entities {
		fmt.Printf("%s  v%d  %s\n", e.ID, e.Version, recordSummary(entityType, e.Data))
	}
	return nil
}

// cmdGet выводит одну запись целиком
func (c *Cli) cmdGet(ctx context.Context, entityType, entityID string) error {
	entity, err := c.dataService.Get(ctx, entityType, entityID)
	if err != nil {
		return err
	}

	var pretty map[string]any
	if err := json.Unmarshal(entity.Data, &pretty); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format record: %w", err)
	}

	fmt.Printf("ID:      %s\n", entity.ID)
	fmt.Printf("Version: %d\n", entity.Version)
	fmt.Printf("Updated: %s\n", entity.UpdatedAt.Format(time.RFC3339))
	fmt.Println(string(out))
	return nil
}

// cmdEdit правит запись локально и ставит UPDATE в очередь
func (c *Cli) cmdEdit(ctx context.Context, entityType, entityID string) error {
	entity, err := c.dataService.Get(ctx, entityType, entityID)
	if err != nil {
		return err
	}

	record, err := promptRecord(entityType, entity.Data)
	if err != nil {
		return err
	}

	updated, err := c.dataService.Update(ctx, entityType, entityID, record)
	if err != nil {
		return err
	}

	fmt.Printf("Updated %s %s to v%d (queued for sync)\n", entityType, entityID, updated.Version)
	return nil
}

// cmdDelete удаляет запись локально и ставит DELETE в очередь
func (c *Cli) cmdDelete(ctx context.Context, entityType, entityID string) error {
	answer, err := readLine(fmt.Sprintf("Delete %s %s? (y/N): ", entityType, entityID))
	if err != nil {
		return err
	}
	if answer != "y" && answer != "Y" {
		fmt.Println("Cancelled")
		return nil
	}

	if err := c.dataService.Delete(ctx, entityType, entityID); err != nil {
		return err
	}

	fmt.Printf("Deleted %s %s (queued for sync)\n", entityType, entityID)
	return nil
}

// promptRecord запрашивает бизнес-поля записи у пользователя.
// current — JSON существующей записи для режима редактирования (nil при создании).
func promptRecord(entityType string, current json.RawMessage) (any, error) {
	switch entityType {
	case models.EntityTypeClass:
		return promptClass(current)
	case models.EntityTypeStudent:
		return promptStudent(current)
	case models.EntityTypeTask:
		return promptTask(current)
	case models.EntityTypeSubmission:
		return promptSubmission(current)
	default:
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}
}

// readField читает значение поля, подставляя текущее при пустом вводе
func readField(name, current string) (string, error) {
	prompt := name + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", name, current)
	}

	value, err := readLine(prompt)
	if err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

func promptClass(current json.RawMessage) (any, error) {
	var record models.SchoolClass
	if current != nil {
		if err := json.Unmarshal(current, &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
	}

	var err error
	if record.Name, err = readField("Name", record.Name); err != nil {
		return nil, err
	}
	if record.Subject, err = readField("Subject", record.Subject); err != nil {
		return nil, err
	}
	if record.TeacherName, err = readField("Teacher", record.TeacherName); err != nil {
		return nil, err
	}

	gradeStr, err := readField("Grade level", strconv.Itoa(record.GradeLevel))
	if err != nil {
		return nil, err
	}
	if record.GradeLevel, err = strconv.Atoi(gradeStr); err != nil {
		return nil, fmt.Errorf("grade level must be a number: %w", err)
	}

	return &record, nil
}

func promptStudent(current json.RawMessage) (any, error) {
	var record models.Student
	if current != nil {
		if err := json.Unmarshal(current, &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
	}

	var err error
	if record.ClassID, err = readField("Class id", record.ClassID); err != nil {
		return nil, err
	}
	if record.FirstName, err = readField("First name", record.FirstName); err != nil {
		return nil, err
	}
	if record.LastName, err = readField("Last name", record.LastName); err != nil {
		return nil, err
	}
	if record.Birthday, err = readField("Birthday (YYYY-MM-DD)", record.Birthday); err != nil {
		return nil, err
	}
	if record.Notes, err = readField("Notes", record.Notes); err != nil {
		return nil, err
	}

	return &record, nil
}

func promptTask(current json.RawMessage) (any, error) {
	var record models.Task
	if current != nil {
		if err := json.Unmarshal(current, &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
	}

	var err error
	if record.ClassID, err = readField("Class id", record.ClassID); err != nil {
		return nil, err
	}
	if record.Title, err = readField("Title", record.Title); err != nil {
		return nil, err
	}
	if record.Description, err = readField("Description", record.Description); err != nil {
		return nil, err
	}

	currentDue := ""
	if record.DueDate > 0 {
		currentDue = time.Unix(record.DueDate, 0).Format("2006-01-02")
	}
	dueStr, err := readField("Due date (YYYY-MM-DD)", currentDue)
	if err != nil {
		return nil, err
	}
	if dueStr == "" {
		record.DueDate = 0
	} else {
		due, err := time.Parse("2006-01-02", dueStr)
		if err != nil {
			return nil, fmt.Errorf("invalid due date: %w", err)
		}
		record.DueDate = due.Unix()
	}

	return &record, nil
}

func promptSubmission(current json.RawMessage) (any, error) {
	record := models.Submission{State: models.SubmissionStateOpen}
	if current != nil {
		if err := json.Unmarshal(current, &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
	}

	var err error
	if record.TaskID, err = readField("Task id", record.TaskID); err != nil {
		return nil, err
	}
	if record.StudentID, err = readField("Student id", record.StudentID); err != nil {
		return nil, err
	}
	if record.State, err = readField("State (open/submitted/graded)", record.State); err != nil {
		return nil, err
	}
	switch record.State {
	case models.SubmissionStateOpen, models.SubmissionStateSubmitted, models.SubmissionStateGraded:
	default:
		return nil, fmt.Errorf("invalid state %q", record.State)
	}
	if record.Grade, err = readField("Grade", record.Grade); err != nil {
		return nil, err
	}
	if record.Comment, err = readField("Comment", record.Comment); err != nil {
		return nil, err
	}

	return &record, nil
}

// recordSummary возвращает однострочное описание записи для list
func recordSummary(entityType string, data json.RawMessage) string {
	switch entityType {
	case models.EntityTypeClass:
		var r models.SchoolClass
		if json.Unmarshal(data, &r) == nil {
			return fmt.Sprintf("%s (%s, grade %d, %s)", r.Name, r.Subject, r.GradeLevel, r.TeacherName)
		}
	case models.EntityTypeStudent:
		var r models.Student
		if json.Unmarshal(data, &r) == nil {
			return fmt.Sprintf("%s %s (class %s)", r.FirstName, r.LastName, r.ClassID)
		}
	case models.EntityTypeTask:
		var r models.Task
		if json.Unmarshal(data, &r) == nil {
			due := ""
			if r.DueDate > 0 {
				due = ", due " + time.Unix(r.DueDate, 0).Format("2006-01-02")
			}
			return fmt.Sprintf("%s (class %s%s)", r.Title, r.ClassID, due)
		}
	case models.EntityTypeSubmission:
		var r models.Submission
		if json.Unmarshal(data, &r) == nil {
			summary := fmt.Sprintf("task %s, student %s: %s", r.TaskID, r.StudentID, r.State)
			if r.Grade != "" {
				summary += " (" + r.Grade + ")"
			}
			return summary
		}
	}
	return "(unreadable record)"
}
