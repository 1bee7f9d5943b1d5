package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xwb1989/sqlparser"
)

func (c *CLI) newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <SQL>",
		Short: "Run a read-only SQL query",
		Long: `Run a single SELECT (or WITH ... SELECT) statement and print the rows it
returns. The statement runs in a read-only transaction, so anything that
writes, locks rows or advances a sequence is refused by the database.

Example:
  vault-cli query "SELECT username FROM vault_users WHERE email LIKE '%vault.com'"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(args[0])
			if err := checkReadOnly(query); err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := c.connect(ctx)
			if err != nil {
				return err
			}
			if b.ReadQuery == nil {
				return errors.New("read-only query execution is not configured")
			}

			rows, err := b.ReadQuery.FetchAllOrEmpty(ctx, query, nil)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, row := range rows {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = fmt.Sprint(v)
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "(%d rows)\n", len(rows))
			return nil
		},
	}
}

// checkReadOnly accepts a single statement that starts as a query. It is a
// first filter only: the read-only transaction is what stops writes hidden
// inside a SELECT.
func checkReadOnly(query string) error {
	if query == "" {
		return validationf("query is empty")
	}

	pieces, err := sqlparser.SplitStatementToPieces(query)
	if err != nil {
		return validationf("failed to split statement: %v", err)
	}
	var statements int
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			statements++
		}
	}
	if statements != 1 {
		return validationf("only a single statement is allowed")
	}

	if sqlparser.Preview(query) != sqlparser.StmtSelect && !startsWithCTE(query) {
		return validationf("only SELECT statements are allowed")
	}
	return nil
}

func startsWithCTE(query string) bool {
	fields := strings.Fields(sqlparser.StripLeadingComments(query))
	return len(fields) > 0 && strings.EqualFold(fields[0], "with")
}
