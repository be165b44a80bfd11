package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/trustedapps/internal/listclient"
	"github.com/hyperengineering/trustedapps/internal/mapper"
	"github.com/hyperengineering/trustedapps/internal/types"
)

var (
	appsListFilter  string
	appsListPage    int
	appsListPerPage int
)

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted applications",
	Args:  cobra.NoArgs,
	RunE:  runAppsList,
}

func init() {
	appsListCmd.Flags().StringVar(&appsListFilter, "filter", "", "Free-text filter on name and description")
	appsListCmd.Flags().IntVar(&appsListPage, "page", 1, "Page number")
	appsListCmd.Flags().IntVar(&appsListPerPage, "per-page", 20, "Items per page")
}

func runAppsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := resolveListClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.CreateTrustedAppsList(ctx); err != nil {
		return err
	}

	result, err := client.FindExceptionListItems(ctx, types.FindExceptionListItemsOptions{
		ListID:        listclient.TrustedAppsListID,
		Page:          appsListPage,
		PerPage:       appsListPerPage,
		Filter:        appsListFilter,
		NamespaceType: listclient.NamespaceAgnostic,
		SortField:     listclient.SortFieldName,
		SortOrder:     listclient.SortOrderAsc,
	})
	if err != nil {
		return fmt.Errorf("list trusted apps: %w", err)
	}

	if appsJSONOutput {
		return printJSON(cmd.OutOrStdout(), types.ListTrustedAppsResponse{
			Data:    result.Data,
			Page:    result.Page,
			PerPage: result.PerPage,
			Total:   result.Total,
		})
	}

	if len(result.Data) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No trusted applications found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tOS\tENTRIES\tCREATED\tCREATED BY")
	for _, item := range result.Data {
		app := mapper.FromItem(item)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			app.ID,
			app.Name,
			app.OS,
			len(app.Entries),
			app.CreatedAt.Format("2006-01-02 15:04"),
			app.CreatedBy,
		)
	}
	w.Flush()

	fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d (%d total)\n", result.Page, result.Total)
	return nil
}
