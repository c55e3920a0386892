package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users command with list, approve and revoke
// subcommands.
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user approval",
		Long:  "List users and grant or revoke access to the assistant",
	}
	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersApproveCmd())
	cmd.AddCommand(newUsersRevokeCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openUserRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			users, err := repo.List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No users yet.")
				return nil
			}

			fmt.Println("Users:")
			for _, user := range users {
				status := "pending"
				if user.Approved {
					status = "approved"
				}
				name := user.Username
				if name == "" {
					name = "(no username)"
				}
				fmt.Printf("  - %d %s [%s], last active %s\n",
					user.ID, name, status, user.LastActiveAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newUsersApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <user-id>",
		Short: "Approve a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setApproval(args[0], true)
		},
	}
}

func newUsersRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <user-id>",
		Short: "Revoke a user's access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setApproval(args[0], false)
		},
	}
}

func setApproval(rawID string, approved bool) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid user ID %q", rawID)
	}

	repo, closeDB, err := openUserRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.SetApproved(context.Background(), id, approved); err != nil {
		if err == database.ErrNotFound {
			return fmt.Errorf("user %d not found (users are created on first contact)", id)
		}
		return fmt.Errorf("failed to update approval: %w", err)
	}

	if approved {
		fmt.Printf("User %d approved.\n", id)
	} else {
		fmt.Printf("User %d revoked.\n", id)
	}
	return nil
}

func openUserRepo() (*database.UserRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return database.NewUserRepository(db), closeDB, nil
}
