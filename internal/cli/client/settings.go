package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/aliasgen/internal/config"
	"github.com/spf13/cobra"
)

// SettingsView is the printable form of the effective settings.
type SettingsView struct {
	Path               string  `json:"path"`
	APIKey             string  `json:"api_key"`
	MaxBodyLength      int     `json:"max_body_length"`
	Model              string  `json:"model"`
	BaseURL            string  `json:"base_url,omitempty"`
	MaxTokens          int     `json:"max_tokens"`
	TitleTemperature   float32 `json:"title_temperature"`
	ContentTemperature float32 `json:"content_temperature"`
	RepairJSON         bool    `json:"repair_json"`
}

// SettingsCmd creates the settings command with subcommands.
func SettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Long: fmt.Sprintf(`Reads and writes the settings file. Environment variables prefixed with
ALIASGEN_ take precedence over the file.

Keys: %s`, strings.Join(config.SettingKeys(), ", ")),
	}

	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsSetCmd())
	cmd.AddCommand(settingsPathCmd())

	return cmd
}

func openSettingsStore() (*config.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return config.NewStore(cfg.SettingsPath, cfg)
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			store, err := openSettingsStore()
			if err != nil {
				return err
			}
			return runSettingsShow(cmd.OutOrStdout(), store, outputJSON)
		},
	}
}

func runSettingsShow(w io.Writer, store *config.Store, outputJSON bool) error {
	s, err := store.Current()
	if err != nil {
		return err
	}

	view := SettingsView{
		Path:               store.Path(),
		APIKey:             s.MaskedAPIKey(),
		MaxBodyLength:      s.MaxBodyLength,
		Model:              s.Model,
		BaseURL:            s.BaseURL,
		MaxTokens:          s.MaxTokens,
		TitleTemperature:   s.TitleTemperature,
		ContentTemperature: s.ContentTemperature,
		RepairJSON:         s.RepairJSON,
	}

	if outputJSON {
		output, _ := json.MarshalIndent(view, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	apiKey := view.APIKey
	if apiKey == "" {
		apiKey = "(not set)"
	}
	fmt.Fprintf(w, "Settings file:        %s\n", view.Path)
	fmt.Fprintf(w, "API key:              %s\n", apiKey)
	fmt.Fprintf(w, "Model:                %s\n", view.Model)
	if view.BaseURL != "" {
		fmt.Fprintf(w, "Base URL:             %s\n", view.BaseURL)
	}
	fmt.Fprintf(w, "Max body length:      %d\n", view.MaxBodyLength)
	fmt.Fprintf(w, "Max tokens:           %d\n", view.MaxTokens)
	fmt.Fprintf(w, "Title temperature:    %g\n", view.TitleTemperature)
	fmt.Fprintf(w, "Content temperature:  %g\n", view.ContentTemperature)
	fmt.Fprintf(w, "Repair JSON:          %t\n", view.RepairJSON)
	return nil
}

func settingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettingsStore()
			if err != nil {
				return err
			}
			return runSettingsSet(cmd.OutOrStdout(), store, args[0], args[1])
		},
	}
}

func runSettingsSet(w io.Writer, store *config.Store, key, value string) error {
	s, err := store.Load()
	if err != nil {
		return err
	}

	if err := s.Set(key, value); err != nil {
		return err
	}

	if err := store.Save(s); err != nil {
		return err
	}

	if key == "api_key" {
		value = s.MaskedAPIKey()
	}
	fmt.Fprintf(w, "%s = %s\n", key, value)
	return nil
}

func settingsPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettingsStore()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}
