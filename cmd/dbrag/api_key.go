package cmd

import (
	"fmt"

	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/db"
	"github.com/dbrag/dbrag-server/internal/db/drivers"
	"github.com/dbrag/dbrag-server/internal/db/models"
	"github.com/dbrag/dbrag-server/internal/db/repository"
	"github.com/dbrag/dbrag-server/internal/utils/hashutil"
	"github.com/dbrag/dbrag-server/internal/utils/randutil"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	apiKeyDriver drivers.Driver
	apiKeyRepo   repository.IAPIKeyRepository
)

var apiKeyCmd = &cobra.Command{
	Use:   "api-key",
	Short: "Manage dbrag API keys",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}

		driver, err := db.NewConnection(cmd.Context(), config.MustGetConfig())
		if err != nil {
			return err
		}

		apiKeyDriver = driver
		apiKeyRepo = repository.NewAPIKeyRepository(driver.GetDB())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if apiKeyDriver != nil {
			return apiKeyDriver.Close()
		}
		return nil
	},
}

func init() {
	setupAPIKeyCmd(apiKeyCmd)
	rootCmd.AddCommand(apiKeyCmd)
}

func setupAPIKeyCmd(cmd *cobra.Command) {
	newAPIKeyCmd := &cobra.Command{
		Use:   "new",
		Short: "Creates a new API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := randutil.RandomString(32)
			if err != nil {
				return err
			}

			mask := randutil.MaskString(key, 4, 4)
			apiKey := models.APIKey{
				KeyMask:   mask,
				IsRevoked: false,
				ID:        uuid.Must(uuid.NewRandom()),
				KeyHash:   hashutil.Sha3256Hash([]byte(key)),
			}

			if _, err := apiKeyRepo.Create(cmd.Context(), &apiKey); err != nil {
				return err
			}

			fmt.Printf("API key created: %s\n", key)
			return nil
		},
	}

	revokeAPIKeyCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if err := apiKeyRepo.RevokeAPIKeyWithHash(cmd.Context(), hashutil.Sha3256Hash([]byte(key))); err != nil {
				return err
			}

			fmt.Printf("API key revoked: %s\n", key)
			return nil
		},
	}

	listAPIKeysCmd := &cobra.Command{
		Use:   "list",
		Short: "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKeys, err := apiKeyRepo.ListAPIKeys(cmd.Context())
			if err != nil {
				return err
			}

			if len(apiKeys) == 0 {
				fmt.Println("No API keys found")
				return nil
			}

			fmt.Println("API keys:")
			for _, apiKey := range apiKeys {
				fmt.Printf("%s (Revoked: %t)\n", apiKey.KeyMask, apiKey.IsRevoked)
			}

			return nil
		},
	}

	cmd.AddCommand(newAPIKeyCmd, revokeAPIKeyCmd, listAPIKeysCmd)
}
