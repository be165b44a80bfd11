package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/trustedapps/internal/mapper"
	"github.com/hyperengineering/trustedapps/internal/types"
	"github.com/hyperengineering/trustedapps/internal/validation"
)

var (
	appsAddDescription string
	appsAddOS          string
	appsAddField       string
	appsAddType        string
	appsAddOperator    string
	appsAddValue       string
)

var appsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a trusted application with a single match entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppsAdd,
}

func init() {
	appsAddCmd.Flags().StringVar(&appsAddDescription, "description", "", "Description (required)")
	appsAddCmd.Flags().StringVar(&appsAddOS, "os", "", "Operating system: windows, linux, macos (required)")
	appsAddCmd.Flags().StringVar(&appsAddField, "field", "process.path", "Match entry field")
	appsAddCmd.Flags().StringVar(&appsAddType, "type", "match", "Match entry type: exact, match, wildcard")
	appsAddCmd.Flags().StringVar(&appsAddOperator, "operator", "included", "Match entry operator: included, excluded")
	appsAddCmd.Flags().StringVar(&appsAddValue, "value", "", "Match entry value (required)")
	appsAddCmd.MarkFlagRequired("description")
	appsAddCmd.MarkFlagRequired("os")
	appsAddCmd.MarkFlagRequired("value")
}

func runAppsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app := types.NewTrustedApp{
		Name:        args[0],
		Description: appsAddDescription,
		OS:          types.OSType(appsAddOS),
		Entries: []types.MatchEntry{{
			Field:    appsAddField,
			Type:     types.EntryType(appsAddType),
			Operator: types.EntryOperator(appsAddOperator),
			Value:    appsAddValue,
		}},
	}

	if errs := validation.ValidateNewTrustedApp(app); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", e.Field, e.Message)
		}
		return fmt.Errorf("invalid trusted app")
	}

	client, err := resolveListClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.CreateTrustedAppsList(ctx); err != nil {
		return err
	}

	item, err := client.CreateExceptionListItem(ctx, mapper.ToCreateItemRequest(app))
	if err != nil {
		return fmt.Errorf("create trusted app: %w", err)
	}

	created := mapper.FromItem(*item)
	if appsJSONOutput {
		return printJSON(cmd.OutOrStdout(), types.CreateTrustedAppResponse{Data: created})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created trusted app %s (%s)\n", created.Name, created.ID)
	return nil
}
