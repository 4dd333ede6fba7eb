package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/casewatch/internal/credential"
	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/ui/config"
)

var clearToken bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively edit the configuration and API token",
	Long: `Opens a form to edit the configuration file and store the API token in
the system keyring. With --clear-token, removes the stored token instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if clearToken {
			if err := credential.ClearToken(); err != nil {
				return err
			}
			fmt.Println("removed API token from the system keyring")
			return nil
		}

		fields := config.FieldsFromConfig(cfg)
		if err := config.NewForm(fields).Run(); err != nil {
			return fmt.Errorf("configure: %w", err)
		}

		fields.Apply(cfg)
		if err := model.SaveConfig(cfgPath, cfg); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", cfgPath)

		if tok := strings.TrimSpace(fields.Token); tok != "" {
			if err := credential.Set(credential.TokenKey, tok); err != nil {
				return err
			}
			fmt.Println("stored API token in the system keyring")
		}
		return nil
	},
}

func init() {
	configureCmd.Flags().BoolVar(&clearToken, "clear-token", false, "remove the stored API token and exit")
}
