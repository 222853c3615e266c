package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/iudanet/schoolsync/internal/client/auth"
	"github.com/iudanet/schoolsync/internal/client/data"
	"github.com/iudanet/schoolsync/internal/client/sync"
	"github.com/iudanet/schoolsync/internal/models"
)

// Cli связывает команды с сервисами клиента
type Cli struct {
	authService *auth.Service
	dataService *data.Service
	syncService *sync.Service
}

// New creates a new CLI
func New(authService *auth.Service, dataService *data.Service, syncService *sync.Service) *Cli {
	return &Cli{
		authService: authService,
		dataService: dataService,
		syncService: syncService,
	}
}

// entityTypeAliases сокращения типов сущностей для командной строки
var entityTypeAliases = map[string]string{
	"class":      models.EntityTypeClass,
	"student":    models.EntityTypeStudent,
	"task":       models.EntityTypeTask,
	"submission": models.EntityTypeSubmission,
}

// resolveEntityType переводит CLI-имя типа в каноничный тег
func resolveEntityType(name string) (string, error) {
	entityType, ok := entityTypeAliases[name]
	if !ok {
		return "", fmt.Errorf("unknown entity type %q (expected: class, student, task, submission)", name)
	}
	return entityType, nil
}

// PrintUsage выводит справку по командам
func PrintUsage() {
	fmt.Println(`SchoolSync - offline-first school records

Usage:
  schoolsync [flags] <command> [args]

Commands:
  register              Register a new school and user
  login                 Log in to the server
  logout                Log out and revoke the session
  status                Show session and pending changes
  sync                  Push local changes and pull server changes

  add <type>            Add a record (class, student, task, submission)
  list <type>           List local records of a type
  get <type> <id>       Show one record
  edit <type> <id>      Edit a record
  delete <type> <id>    Delete a record

Flags:
  -server <url>         Server URL (default http://localhost:8080)
  -db <path>            Local database path (default schoolsync-client.db)`)
}

// readLine читает строку из stdin с подсказкой
func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword читает пароль без эха в терминале
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
