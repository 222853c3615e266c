package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/schoolsync/internal/client/storage"
)

// cmdRegister регистрирует новую школу и пользователя
func (c *Cli) cmdRegister(ctx context.Context) error {
	schoolName, err := readLine("School name: ")
	if err != nil {
		return err
	}

	username, err := readLine("Username: ")
	if err != nil {
		return err
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return err
	}

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	resp, err := c.authService.Register(ctx, schoolName, username, password)
	if err != nil {
		return err
	}

	fmt.Printf("Registered school %q (id %s)\n", schoolName, resp.SchoolID)
	fmt.Println("Run 'schoolsync login' to start working")
	return nil
}

// cmdLogin аутентифицируется на сервере и сохраняет сессию
func (c *Cli) cmdLogin(ctx context.Context) error {
	username, err := readLine("Username: ")
	if err != nil {
		return err
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	if err := c.authService.Login(ctx, username, password); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", username)
	return nil
}

// cmdLogout отзывает сессию
func (c *Cli) cmdLogout(ctx context.Context) error {
	if err := c.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

// cmdStatus показывает состояние сессии и очереди изменений
func (c *Cli) cmdStatus(ctx context.Context) error {
	session, err := c.authService.Session(ctx)
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		fmt.Println("Not logged in")
	case err != nil:
		return err
	default:
		fmt.Printf("Logged in as %s\n", session.Username)
		if session.IsExpired() {
			fmt.Println("Access token expired (will refresh on next sync)")
		}
	}

	pending, err := c.syncService.PendingCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Pending changes: %d\n", pending)
	return nil
}
