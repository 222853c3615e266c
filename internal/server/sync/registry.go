// Package sync реализует движок синхронизации: журнал изменений,
// выдачу изменений клиентам (pull) и применение клиентских батчей
// с оптимистичной блокировкой (push). Движок stateless между вызовами —
// вся согласованность держится на транзакциях хранилища.
package sync

import (
	"sort"

	"github.com/iudanet/schoolsync/internal/server/storage"
)

// Registry связывает тип сущности с ее репозиторием. Добавление нового
// синхронизируемого типа — это одна регистрация; pull/push сервисы
// не меняются.
type Registry struct {
	repos map[string]storage.EntityRepository
}

// NewRegistry creates an empty repository registry
func NewRegistry() *Registry {
	return &Registry{repos: make(map[string]storage.EntityRepository)}
}

// Register adds a repository under its entity type tag.
// Registering the same tag twice replaces the previous repository.
func (r *Registry) Register(repo storage.EntityRepository) {
	r.repos[repo.EntityType()] = repo
}

// Lookup returns the repository for an entity type tag
func (r *Registry) Lookup(entityType string) (storage.EntityRepository, bool) {
	repo, ok := r.repos[entityType]
	return repo, ok
}

// Types returns the registered entity type tags in sorted order
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.repos))
	for t := range r.repos {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
