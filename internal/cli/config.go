package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ytget/ytfetch/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, change or reset settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := json.MarshalIndent(a.settings, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode settings: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the settings file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.configPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting and save it",
			Long:  "set changes one setting in the settings file. Keys: " + strings.Join(settingKeys(), ", ") + ".",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				// reload so flag overrides such as --dir are not persisted
				settings, err := config.LoadSettingsFrom(a.configPath)
				if err != nil {
					return err
				}
				if err := applySetting(settings, args[0], args[1]); err != nil {
					return err
				}
				if err := config.SaveSettingsTo(a.configPath, settings); err != nil {
					return fmt.Errorf("failed to save settings: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Write the default settings to the settings file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.SaveSettingsTo(a.configPath, config.DefaultSettings()); err != nil {
					return fmt.Errorf("failed to save settings: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Settings reset:", a.configPath)
				return nil
			},
		},
	)
	return cmd
}

// settingSetters maps config keys to setters. Numeric values go through the
// clamping setters of config.Settings.
var settingSetters = map[string]func(s *config.Settings, value string) error{
	"download-dir": func(s *config.Settings, v string) error {
		s.General.DownloadDir = v
		return nil
	},
	"quality": func(s *config.Settings, v string) error {
		s.General.Quality = v
		return nil
	},
	"log-level": func(s *config.Settings, v string) error {
		s.General.LogLevel = v
		return nil
	},
	"max-retries": func(s *config.Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.SetMaxRetries(n)
		return nil
	},
	"retry-delay": func(s *config.Settings, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("must be positive")
		}
		s.Throttle.RetryDelay = d
		return nil
	},
	"smoothing-window": func(s *config.Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.SetSmoothingWindow(n)
		return nil
	},
	"ui-update-interval": func(s *config.Settings, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		s.SetUIUpdateInterval(d)
		return nil
	},
	"concurrent-fragments": func(s *config.Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.SetConcurrentFragments(n)
		return nil
	},
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func applySetting(s *config.Settings, key, value string) error {
	set, ok := settingSetters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(settingKeys(), ", "))
	}
	if err := set(s, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}
