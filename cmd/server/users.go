package main

import (
	"encoding/json"
	"fmt"

	"github.com/fardannozami/wa-session-gateway/internal/app/usecase"
	"github.com/fardannozami/wa-session-gateway/internal/infra/db"
	"github.com/spf13/cobra"
)

func newUsersCmd(configFile *string) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage session owners",
	}

	var in usecase.CreateOwnerInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an owner and print its user id and session id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			sqlDB, err := db.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			owners, err := db.NewOwnerStore(cmd.Context(), sqlDB)
			if err != nil {
				return err
			}

			out, err := usecase.NewCreateOwnerUsecase(owners).Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			if !out.Created {
				fmt.Fprintln(cmd.ErrOrStderr(), "owner already exists for", out.Owner.Email)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out.Owner)
		},
	}
	add.Flags().StringVar(&in.Username, "username", "", "owner username")
	add.Flags().StringVar(&in.Email, "email", "", "owner email")
	add.Flags().StringVar(&in.Phone, "phone", "", "owner phone number")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("email")

	users.AddCommand(add)
	return users
}
