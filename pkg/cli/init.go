package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/peekd/peekd/pkg/config"
)

var (
	initForce       bool
	initOutput      string
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter peekd.yaml configuration file",
	Example: `  # Write peekd.yaml with defaults
  peekd init

  # Answer prompts instead
  peekd init -i

  # Custom filename
  peekd init -o inspector.yaml`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", config.DefaultConfigFile, "Output filename")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for configuration values")
}

func runInit(cmd *cobra.Command, args []string) error {
	if !initForce {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", initOutput)
		}
	}

	cfg := config.Default()

	if initInteractive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}

	if err := cfg.Write(initOutput); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", initOutput)
	fmt.Println("Start the inspector with: peekd serve")
	return nil
}

func promptConfig(cfg *config.Config) error {
	portStr := strconv.Itoa(cfg.Port)
	maxRecordsStr := strconv.Itoa(cfg.MaxRecords)
	ignoreStr := ""
	logLevel := cfg.LogLevel

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Which port should the inspector listen on?").
				Value(&portStr).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 || n > 65535 {
						return errors.New("port must be a number between 1 and 65535")
					}
					return nil
				}),
			huh.NewInput().
				Title("How many requests should be kept in memory?").
				Value(&maxRecordsStr).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return errors.New("capacity must be a positive number")
					}
					return nil
				}),
			huh.NewInput().
				Title("Paths to ignore (comma-separated globs, empty for none)").
				Placeholder("/favicon.ico, /probes/**").
				Value(&ignoreStr),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&logLevel),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Port, _ = strconv.Atoi(portStr)
	cfg.MaxRecords, _ = strconv.Atoi(maxRecordsStr)
	cfg.LogLevel = logLevel
	cfg.Ignore = nil
	for _, g := range strings.Split(ignoreStr, ",") {
		if g = strings.TrimSpace(g); g != "" {
			cfg.Ignore = append(cfg.Ignore, g)
		}
	}
	return nil
}
