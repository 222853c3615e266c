package cli

import (
	"context"
	"fmt"
)

// Run разбирает команду и выполняет ее
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		PrintUsage()
		return nil
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "register":
		return c.cmdRegister(ctx)
	case "login":
		return c.cmdLogin(ctx)
	case "logout":
		return c.cmdLogout(ctx)
	case "status":
		return c.cmdStatus(ctx)
	case "sync":
		return c.cmdSync(ctx)
	case "add":
		entityType, err := typeArg(rest)
		if err != nil {
			return err
		}
		return c.cmdAdd(ctx, entityType)
	case "list":
		entityType, err := typeArg(rest)
		if err != nil {
			return err
		}
		return c.cmdList(ctx, entityType)
	case "get":
		entityType, entityID, err := typeIDArgs(rest)
		if err != nil {
			return err
		}
		return c.cmdGet(ctx, entityType, entityID)
	case "edit":
		entityType, entityID, err := typeIDArgs(rest)
		if err != nil {
			return err
		}
		return c.cmdEdit(ctx, entityType, entityID)
	case "delete":
		entityType, entityID, err := typeIDArgs(rest)
		if err != nil {
			return err
		}
		return c.cmdDelete(ctx, entityType, entityID)
	case "help":
		PrintUsage()
		return nil
	default:
		PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// typeArg извлекает тип сущности из аргументов команды
func typeArg(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("entity type required (class, student, task, submission)")
	}
	return resolveEntityType(args[0])
}

// typeIDArgs извлекает тип сущности и идентификатор
func typeIDArgs(args []string) (string, string, error) {
	entityType, err := typeArg(args)
	if err != nil {
		return "", "", err
	}
	if len(args) < 2 {
		return "", "", fmt.Errorf("entity id required")
	}
	return entityType, args[1], nil
}
