package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/trustedapps/internal/listclient"
	"github.com/hyperengineering/trustedapps/internal/types"
)

var appsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a trusted application by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppsRemove,
}

func runAppsRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	client, err := resolveListClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.CreateTrustedAppsList(ctx); err != nil {
		return err
	}

	item, err := client.DeleteExceptionListItem(ctx, types.DeleteExceptionListItemOptions{
		ID:            id,
		NamespaceType: listclient.NamespaceAgnostic,
	})
	if err != nil {
		return fmt.Errorf("delete trusted app: %w", err)
	}
	if item == nil {
		return fmt.Errorf("trusted app %s not found", id)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed trusted app %s (%s)\n", item.Name, item.ID)
	return nil
}
