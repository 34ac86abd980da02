package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/tubescript-ai/internal/app"
	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/cli"
	"github.com/fpang/tubescript-ai/internal/credential"
)

var keyModel string

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage saved API keys",
	Long: `Saved keys take precedence over GEMINI_API_KEY and HUGGINGFACE_API_KEY.
Names are "gemini" (default) or "huggingface".`,
}

var keySetCmd = &cobra.Command{
	Use:   "set [gemini|huggingface]",
	Short: "Save an API key (prompted, not echoed to history)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := keyName(args)
		services := keyServices()

		key, err := cli.NewPrompter(os.Stdin, os.Stdout).Line("API key", "")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read API key")
		}
		key = strings.TrimSpace(key)
		if name == credential.GeminiAPIKey {
			if err := services.Client.ValidateKey(context.Background(), key); err != nil {
				log.Fatal().Err(err).Str("kind", chat.KindOf(err).String()).Msg(chat.Message(err))
			}
		}
		if err := services.Credentials.Save(context.Background(), name, key); err != nil {
			log.Fatal().Err(err).Msg("Failed to save API key")
		}
		fmt.Printf("Saved %s (%s)\n", name, credential.Mask(key))
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear [gemini|huggingface]",
	Short: "Remove a saved API key",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := keyName(args)
		services := keyServices()
		if err := services.Credentials.Clear(context.Background(), name); err != nil {
			log.Fatal().Err(err).Msg("Failed to clear API key")
		}
		fmt.Printf("Cleared %s\n", name)
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where each API key comes from",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		services := keyServices()
		ctx := context.Background()
		for _, name := range []string{credential.GeminiAPIKey, credential.HuggingFaceAPIKey} {
			src := services.Credentials.Source(ctx, name)
			if src == "" {
				fmt.Printf("%-20s not configured\n", name)
				continue
			}
			fmt.Printf("%-20s %s (%s)\n", name, credential.Mask(services.Credentials.Get(ctx, name)), src)
		}
	},
}

var keyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the Gemini API key with a minimal request",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		services := keyServices()
		ctx := context.Background()
		key := services.Credentials.Get(ctx, credential.GeminiAPIKey)
		if err := services.Client.ValidateKey(ctx, key); err != nil {
			log.Fatal().Err(err).Str("kind", chat.KindOf(err).String()).Msg(chat.Message(err))
		}
		fmt.Printf("Gemini API key is valid for %s\n", services.Client.Model())
	},
}

func init() {
	keyCmd.PersistentFlags().StringVarP(&keyModel, "model", "m", "", "Gemini model to validate against (default "+chat.DefaultModelName+")")
	keyCmd.AddCommand(keySetCmd, keyClearCmd, keyStatusCmd, keyCheckCmd)
}

func keyServices() *app.Services {
	if keyModel != "" {
		cfg.GeminiModel = keyModel
	}
	return app.New(cfg, app.Options{CredentialStore: app.LocalCredentialStore(cfg)})
}

func keyName(args []string) string {
	if len(args) == 0 {
		return credential.GeminiAPIKey
	}
	name, err := credential.ParseName(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown key name")
	}
	return name
}
