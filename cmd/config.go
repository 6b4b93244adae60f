package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/kitadash/internal/config"
	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kitadash configuration",
	Long:  `Read and write kitadash configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Edit endpoints to point kitadash at your KitaKits deployment.")
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := applyFlags(cfg); err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}

		if globalFlags.Format == render.FormatJSON {
			type configOut struct {
				Endpoints   []string `json:"endpoints"`
				Format      string   `json:"default_format"`
				DefaultMode string   `json:"default_mode"`
				Timeout     string   `json:"timeout"`
				Rate        float64  `json:"rate"`
				DBPath      string   `json:"db_path"`
				UserAgent   string   `json:"user_agent"`
				ConfigFile  string   `json:"config_file"`
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(configOut{
				Endpoints:   cfg.Endpoints,
				Format:      cfg.Format,
				DefaultMode: string(cfg.DefaultMode),
				Timeout:     cfg.Timeout.String(),
				Rate:        cfg.Rate,
				DBPath:      cfg.DBPath,
				UserAgent:   cfg.UserAgent,
				ConfigFile:  src,
			})
		}

		rows := [][]string{
			{"default_format", cfg.Format},
			{"default_mode", string(cfg.DefaultMode)},
			{"timeout", cfg.Timeout.String()},
			{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
			{"db_path", cfg.DBPath},
			{"user_agent", cfg.UserAgent},
			{"config_file", src},
		}
		for i, e := range cfg.Endpoints {
			rows = append(rows, []string{fmt.Sprintf("endpoint[%d]", i), e})
		}
		printKVTableTo(cmd.OutOrStdout(), rows)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Long: `Set a configuration value in config.json, creating the file from the
template when it does not exist.

Valid keys: endpoints (comma-separated), default_format, default_mode,
timeout, rate, db_path, user_agent.`,
	Args: cobra.ExactArgs(2),
	Example: `  kitadash config set default_mode mock
  kitadash config set endpoints https://a.example.com,https://b.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		f, err := config.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			t := config.Template()
			f = &t
		case err != nil:
			return err
		}

		key := strings.ToLower(args[0])
		if err := setConfigKey(f, key, args[1]); err != nil {
			return err
		}
		if err := config.WriteFile(path, *f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, path)
		return nil
	},
}

// setConfigKey validates val for key and stores it in f.
func setConfigKey(f *config.File, key, val string) error {
	switch key {
	case "endpoints", "endpoint":
		eps := config.SplitEndpoints(val)
		if len(eps) == 0 {
			return errors.New("endpoints must not be empty")
		}
		f.Endpoints = eps
	case "default_format", "format":
		if !render.ValidFormat(val) {
			return fmt.Errorf("unknown format %q (valid: %s)", val, strings.Join(render.Formats, ", "))
		}
		f.DefaultFormat = val
	case "default_mode", "mode":
		m, err := model.ParseMode(val)
		if err != nil {
			return err
		}
		f.DefaultMode = string(m)
	case "timeout":
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("timeout must be a duration such as 5s: %w", err)
		}
		f.Timeout = val
	case "rate":
		r, err := strconv.ParseFloat(val, 64)
		if err != nil || r <= 0 {
			return errors.New("rate must be a positive number")
		}
		f.Rate = r
	case "db_path":
		f.DBPath = val
	case "user_agent":
		f.UserAgent = val
	default:
		return fmt.Errorf("unknown config key: %q\n\nValid keys: endpoints, default_format, default_mode, timeout, rate, db_path, user_agent", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
