package cli

import (
	"context"
	"fmt"
)

// cmdSync выполняет полный цикл синхронизации
func (c *Cli) cmdSync(ctx context.Context) error {
	accessToken, err := c.authService.AccessToken(ctx)
	if err != nil {
		return err
	}

	result, err := c.syncService.Sync(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Pushed %d changes: %d accepted, %d conflicts, %d rejected\n",
		result.Pushed, result.Accepted, result.Conflicts, result.Rejected)
	fmt.Printf("Applied %d server changes (cursor %d)\n", result.Applied, result.LastSyncID)

	if result.Conflicts > 0 {
		fmt.Println("Conflicting edits were discarded; the server value is now local. Re-apply your edits if still needed.")
	}
	return nil
}
