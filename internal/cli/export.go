package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dtroode/vaultqa/internal/model"
	storage "github.com/dtroode/vaultqa/internal/storage/minio"
)

type exportedUser struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

var exportContentTypes = map[string]string{
	"csv":  "text/csv",
	"json": "application/json",
}

func (c *CLI) newExportUsersCmd() *cobra.Command {
	var (
		format string
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "export-users",
		Short: "Export users ordered by username",
		Long: `Export every user ordered by username as CSV or JSON.

With --upload the export is stored in the object store instead of being
printed, and the object key is reported.

Example:
  vault-cli export-users --format=csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, ok := exportContentTypes[format]
			if !ok {
				return validationf("unsupported format %q (want csv or json)", format)
			}

			ctx := cmd.Context()
			b, err := c.connect(ctx)
			if err != nil {
				return err
			}

			users, err := b.Users.List(ctx)
			if err != nil {
				return err
			}

			if !upload {
				return writeUsers(cmd.OutOrStdout(), users, format)
			}

			if b.Storage == nil {
				return errors.New("object storage is not configured")
			}
			var buf bytes.Buffer
			if err := writeUsers(&buf, users, format); err != nil {
				return err
			}
			key := storage.ExportKey(format)
			if err := b.Storage.Upload(ctx, key, &buf, contentType); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "exported %d users to %s\n", len(users), key)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	cmd.Flags().BoolVar(&upload, "upload", false, "store the export in object storage")

	return cmd
}

func writeUsers(w io.Writer, users []model.User, format string) error {
	switch format {
	case "json":
		out := make([]exportedUser, 0, len(users))
		for _, u := range users {
			out = append(out, exportedUser{UserID: u.ID, Username: u.Username, Email: u.Email})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"user_id", "username", "email"}); err != nil {
			return err
		}
		for _, u := range users {
			if err := cw.Write([]string{strconv.FormatInt(u.ID, 10), u.Username, u.Email}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
