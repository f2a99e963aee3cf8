package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/service"
)

func newPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email> <role>",
		Short: "Change a user's role",
		Long:  "Assign buyer, agent or admin to an existing account. This is the only way to create an admin.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := domain.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("unknown role %q (want buyer, agent or admin)", args[1])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			auth := service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost, cfg.TokenTTL)
			user, err := auth.SetRole(cmd.Context(), args[0], role)
			if err != nil {
				return fmt.Errorf("promote %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
}
