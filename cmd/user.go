package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scribeai/internal/auth"
	"scribeai/internal/config"
	"scribeai/internal/db"
	"scribeai/internal/logger"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user with email and password credentials",
	Example: `  scribeai user add --email ada@example.com --name "Ada Lovelace" --password secret1`,
	Args:    cobra.NoArgs,
	RunE:    runUserAdd,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().String("email", "", "Email address")
	userAddCmd.Flags().String("name", "", "Display name")
	userAddCmd.Flags().String("password", "", "Password (at least 6 characters)")
	userAddCmd.MarkFlagRequired("email")
	userAddCmd.MarkFlagRequired("name")
	userAddCmd.MarkFlagRequired("password")
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("user")

	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	// Registration never issues a token.
	service := auth.NewService(db.NewRepository(database), nil)
	user, err := service.Register(ctx, auth.RegisterInput{Email: email, Password: password, Name: name})
	if err != nil {
		return err
	}

	log.Info().Str("user_id", user.ID).Msg("User created")
	fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
	return nil
}
