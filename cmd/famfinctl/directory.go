package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	applog "famfin/internal/log"
	"famfin/internal/storage"
)

var familyCmd = &cobra.Command{
	Use:   "family",
	Short: "Manage families",
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage a family's categories",
}

var familyCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a family",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			return fmt.Errorf("family name is required")
		}
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		family, err := repo.Queries().CreateFamily(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("create family: %w", err)
		}
		logger.Info("Family created", applog.FieldFamilyID, family.ID, "name", family.Name)
		fmt.Fprintln(cmd.OutOrStdout(), family.ID)
		return nil
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user, optionally joined to a family",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		familyID, _ := cmd.Flags().GetInt64("family")
		if strings.TrimSpace(name) == "" || !strings.Contains(email, "@") {
			return fmt.Errorf("--name and a valid --email are required")
		}

		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		q := repo.Queries()
		if familyID > 0 {
			if _, err := q.GetFamily(cmd.Context(), familyID); err != nil {
				return fmt.Errorf("family %d: %w", familyID, err)
			}
		}
		user, err := q.CreateUser(cmd.Context(), storage.CreateUserParams{
			Name:     strings.TrimSpace(name),
			Email:    strings.TrimSpace(email),
			FamilyID: storage.NullID(familyID),
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		logger.Info("User created", applog.FieldUserID, user.ID, applog.FieldFamilyID, familyID)
		fmt.Fprintln(cmd.OutOrStdout(), user.ID)
		return nil
	},
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		familyID, _ := cmd.Flags().GetInt64("family")
		if familyID <= 0 {
			return fmt.Errorf("--family is required")
		}
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		category, err := repo.Queries().CreateCategory(cmd.Context(), storage.CreateCategoryParams{
			FamilyID: familyID,
			Name:     strings.TrimSpace(args[0]),
		})
		if err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		logger.Info("Category created", applog.FieldFamilyID, familyID, "category_id", category.ID)
		fmt.Fprintln(cmd.OutOrStdout(), category.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().String("name", "", "Display name")
	userCreateCmd.Flags().String("email", "", "Email address")
	userCreateCmd.Flags().Int64("family", 0, "Family to join")

	categoryCreateCmd.Flags().Int64("family", 0, "Owning family id")

	familyCmd.AddCommand(familyCreateCmd)
	userCmd.AddCommand(userCreateCmd)
	categoryCmd.AddCommand(categoryCreateCmd)
}
