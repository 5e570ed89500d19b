package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"echo-diary/internal/config"
	"echo-diary/internal/logger"
	"echo-diary/internal/model"
	"echo-diary/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type app struct {
	cfg  *config.Config
	db   *gorm.DB
	auth *service.AuthService
}

type loader func() (*app, error)

func openApp(configFile string) (*app, error) {
	cfg := config.Load(configFile)
	logger.Init(cfg.Log)
	db, err := cfg.OpenGormDB()
	if err != nil {
		return nil, err
	}
	if err := model.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &app{cfg: cfg, db: db, auth: service.NewAuthService(db, cfg.Auth)}, nil
}

func ok(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgGreen).Sprint("✓"), fmt.Sprintf(format, args...))
}

func migrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			ok(cmd, "schema up to date (%s)", a.cfg.Database.ResolveDriver())
			return nil
		},
	}
}

func seedAdminCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the default admin account if it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			if err := a.auth.EnsureAdmin(context.Background()); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			ok(cmd, "admin account %q present", service.AdminUsername)
			return nil
		},
	}
}

func createUserCmd(load loader) *cobra.Command {
	var password string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create-user [username]",
		Short: "Create a user account",
		Long: `Create a user account.

Examples:
  echodiary-admin create-user alice --password s3cret
  echodiary-admin create-user ops --password s3cret --admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			role := model.RoleUser
			if admin {
				role = model.RoleAdmin
			}
			u, err := a.auth.CreateUser(context.Background(), args[0], password, role)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			ok(cmd, "created %s %s (%s)", u.Role, u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func usersCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			users, err := a.auth.ListUsers(context.Background())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED")
			for _, u := range users {
				role := string(u.Role)
				if u.Role == model.RoleAdmin {
					role = color.New(color.FgYellow).Sprint(role)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, role, u.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
