package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/boulodrome/clubhouse/auth"
	"github.com/boulodrome/clubhouse/config"
	"github.com/boulodrome/clubhouse/internal/util"
	"github.com/boulodrome/clubhouse/internal/uuid"
	"github.com/boulodrome/clubhouse/storage"
)

var (
	memberRole     string
	memberEmail    string
	memberPassword string
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage member accounts",
	Long:  `Commands for adding, listing, and removing club member accounts.`,
}

var membersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create or update a member account",
	Long: `Creates a member account, or resets the password and role of an existing
one. Without --password a random password is generated and printed once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		role, err := auth.ParseRole(memberRole)
		if err != nil {
			return err
		}

		password := memberPassword
		generated := false
		if password == "" {
			password, err = util.RandomChars(20)
			if err != nil {
				return fmt.Errorf("failed to generate password: %w", err)
			}
			generated = true
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		store, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		username := storage.NormalizeUsername(args[0])
		member := &storage.Member{
			ID:           uuid.New(),
			Username:     username,
			Email:        memberEmail,
			Role:         string(role),
			PasswordHash: hash,
			CreatedAt:    time.Now().UTC(),
		}

		// Updating an existing account keeps its identity.
		existing, err := store.GetMember(cmd.Context(), username)
		switch {
		case err == nil:
			member.ID = existing.ID
			member.CreatedAt = existing.CreatedAt
			if memberEmail == "" {
				member.Email = existing.Email
			}
		case errors.Is(err, storage.ErrNotFound):
		default:
			return fmt.Errorf("failed to look up member: %w", err)
		}

		if err := store.PutMember(cmd.Context(), member); err != nil {
			return fmt.Errorf("failed to store member: %w", err)
		}

		fmt.Printf("Member %q stored with role %s\n", username, role)
		if generated {
			fmt.Printf("Generated password: %s\n", password)
		}
		return nil
	},
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List member accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		members, err := store.ListMembers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tROLE\tEMAIL\tCREATED")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Username, m.Role, m.Email, m.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var membersRemoveCmd = &cobra.Command{
	Use:   "remove <username>",
	Short: "Remove a member account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		username := storage.NormalizeUsername(args[0])
		if err := store.DeleteMember(cmd.Context(), username); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no such member %q", username)
			}
			return fmt.Errorf("failed to remove member: %w", err)
		}
		fmt.Printf("Member %q removed\n", username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(membersCmd)
	membersCmd.AddCommand(membersAddCmd)
	membersCmd.AddCommand(membersListCmd)
	membersCmd.AddCommand(membersRemoveCmd)

	membersAddCmd.Flags().StringVar(&memberRole, "role", "editor", "Member role (admin or editor)")
	membersAddCmd.Flags().StringVar(&memberEmail, "email", "", "Member email address")
	membersAddCmd.Flags().StringVar(&memberPassword, "password", "", "Password; generated and printed when omitted")
}
