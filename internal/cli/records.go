package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newDeleteRecordsCmd() *cobra.Command {
	var (
		userID  int64
		confirm bool
	)

	cmd := &cobra.Command{
		Use:   "delete-records",
		Short: "Delete every record owned by a user",
		Long: `Delete every vault record owned by a user. The user row is kept.

Example:
  vault-cli delete-records --user-id=123 --confirm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return validationf("--user-id must be a positive integer")
			}
			if !confirm {
				return validationf("refusing to delete records of user %d without --confirm", userID)
			}

			ctx := cmd.Context()
			b, err := c.connect(ctx)
			if err != nil {
				return err
			}

			n, err := b.Records.DeleteByUser(ctx, userID)
			if err != nil {
				return err
			}
			if c.opts.Logger != nil {
				c.opts.Logger.Info("deleted records", "user_id", userID, "count", n)
			}
			printf(cmd.OutOrStdout(), "deleted %d records for user %d\n", n, userID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 0, "owner of the records to delete")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the deletion")

	return cmd
}

const recordTypeBreakdown = `SELECT COALESCE(record_type, ''), COUNT(*)
FROM vault_records
GROUP BY record_type
ORDER BY 1`

func (c *CLI) newStatsCmd() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print row counts for a vault table",
		Long: `Print the row count of vault_users or vault_records. For vault_records
the count is broken down by record type.

Example:
  vault-cli stats --table=vault_records`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if table != "vault_users" && table != "vault_records" {
				return validationf("unknown table %q (want vault_users or vault_records)", table)
			}

			ctx := cmd.Context()
			b, err := c.connect(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if table == "vault_users" {
				n, err := b.Users.Count(ctx)
				if err != nil {
					return err
				}
				printf(out, "%s: %d rows\n", table, n)
				return nil
			}

			n, err := b.Records.Count(ctx)
			if err != nil {
				return err
			}
			printf(out, "%s: %d rows\n", table, n)

			if b.Query == nil {
				return nil
			}
			rows, err := b.Query.FetchAllOrEmpty(ctx, recordTypeBreakdown, nil)
			if err != nil {
				return err
			}
			for _, row := range rows {
				name := fmt.Sprint(row[0])
				if name == "" {
					name = "(untyped)"
				}
				printf(out, "  %s: %v\n", name, row[1])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "vault_users", "table to summarize: vault_users or vault_records")

	return cmd
}
