package main

import (
	"context"
	"fmt"

	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/spf13/cobra"

	"github.com/lumina/internal/service"
)

var adminCMD = &cobra.Command{
	Use:   "admin",
	Short: "manage admin accounts",
}

var adminCreateCMD = &cobra.Command{
	Use:   "create",
	Short: "create an admin account",
	Args:  gcmd.NoExtraArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := initialize(cmd)
		if err != nil {
			return err
		}

		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		ctx := context.Background()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close(ctx) //nolint:errcheck

		user, err := service.NewAccountService(st).Create(ctx, username, password)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %s)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	adminCreateCMD.Flags().String("username", "", "admin username")
	adminCreateCMD.Flags().String("password", "", "admin password, at least 8 characters")
	_ = adminCreateCMD.MarkFlagRequired("username")
	_ = adminCreateCMD.MarkFlagRequired("password")

	adminCMD.AddCommand(adminCreateCMD)
	rootCMD.AddCommand(adminCMD)
}
