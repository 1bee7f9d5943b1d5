package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dtroode/vaultqa/internal/model"
	"github.com/dtroode/vaultqa/internal/vaultcrypto"
)

var sampleUsers = []struct {
	username string
	email    string
}{
	{"john_doe", "john@vault.com"},
	{"jane_smith", "jane@vault.com"},
}

func (c *CLI) newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the role, database, extensions and schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.opts.Provisioner == nil {
				return errors.New("no provisioner configured")
			}

			res, err := c.opts.Provisioner.Setup(cmd.Context())
			if err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}

			out := cmd.OutOrStdout()
			printf(out, "role: %s\n", createdOrExisting(res.RoleCreated))
			printf(out, "database: %s\n", createdOrExisting(res.DatabaseCreated))
			printf(out, "schema: up to date\n")
			return nil
		},
	}
}

func createdOrExisting(created bool) string {
	if created {
		return "created"
	}
	return "already exists"
}

func (c *CLI) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample users with one password record each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := c.connect(ctx)
			if err != nil {
				return err
			}

			for _, su := range sampleUsers {
				user, err := b.Users.Create(ctx, su.username, su.email)
				if errors.Is(err, model.ErrAlreadyExists) {
					user, err = b.Users.GetByUsername(ctx, su.username)
				}
				if err != nil {
					return fmt.Errorf("failed to seed user %s: %w", su.username, err)
				}

				title := su.username + "_password"
				seeded, err := hasRecord(ctx, b.Records, user.ID, title)
				if err != nil {
					return fmt.Errorf("failed to check sample record for %s: %w", su.username, err)
				}
				if seeded {
					continue
				}

				payload := "encrypted_data_123"
				if b.Cipher != nil {
					payload, err = vaultcrypto.Seal(b.Cipher, su.username+"-sample-secret")
					if err != nil {
						return fmt.Errorf("failed to seal sample secret: %w", err)
					}
				}

				_, err = b.Records.Create(ctx, model.CreateRecordParams{
					UserID:        user.ID,
					Title:         title,
					EncryptedData: payload,
					RecordType:    model.RecordTypePassword.Ptr(),
				})
				if err != nil {
					return fmt.Errorf("failed to seed record for %s: %w", su.username, err)
				}
			}

			printf(cmd.OutOrStdout(), "Sample data added: %d users\n", len(sampleUsers))
			return nil
		},
	}
}

func hasRecord(ctx context.Context, records model.RecordStore, userID int64, title string) (bool, error) {
	rs, err := records.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range rs {
		if r.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (c *CLI) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print all users, records and counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := c.connect(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			users, err := b.Users.List(ctx)
			if err != nil {
				return err
			}
			printf(out, "=== VAULT USERS ===\n")
			for _, u := range users {
				printf(out, "%d\t%s\t%s\n", u.ID, u.Username, u.Email)
			}

			printf(out, "\n=== VAULT RECORDS ===\n")
			var records int
			for _, u := range users {
				rs, err := b.Records.ListByUser(ctx, u.ID)
				if err != nil {
					return err
				}
				for _, r := range rs {
					printf(out, "%d\t%d\t%s\t%s\n", r.ID, r.UserID, r.Title, r.TypeOrEmpty())
				}
				records += len(rs)
			}

			printf(out, "\n=== COUNTS ===\n")
			printf(out, "Users: %d\n", len(users))
			printf(out, "Records: %d\n", records)
			return nil
		},
	}
}
