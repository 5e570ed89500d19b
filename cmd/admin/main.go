package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "echodiary-admin",
		Short:         "EchoDiary maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (e.g. etc/config-dev.yaml)")

	load := func() (*app, error) { return openApp(configFile) }
	root.AddCommand(migrateCmd(load))
	root.AddCommand(seedAdminCmd(load))
	root.AddCommand(createUserCmd(load))
	root.AddCommand(usersCmd(load))
	return root
}
