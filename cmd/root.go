package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/leakscan/cmd/rules"
	"github.com/scan-io-git/leakscan/cmd/scan"
	"github.com/scan-io-git/leakscan/cmd/version"
	"github.com/scan-io-git/leakscan/pkg/shared/config"
	"github.com/scan-io-git/leakscan/pkg/shared/errors"
)

var (
	cfgFile   string
	configErr error
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "leakscan [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Leakscan finds hard-coded secrets, URIs and endpoints in mobile application packages.",
		Long: `Leakscan decompiles an application package, searches the decompiled sources with a catalog
	of named patterns and keeps one baseline report per artifact, replacing it only when the findings change.
	`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configErr
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath))
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(rules.RulesCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return errors.ExitCodeFor(err)
	}
	return 0
}

func initConfig() {
	var err error

	explicit := cfgFile != ""
	if !explicit {
		cfgFile = config.DefaultConfigPath
	}
	AppConfig, err = config.LoadConfig(cfgFile, explicit)
	if err != nil {
		configErr = fmt.Errorf("initializing config file function is crashed: %w", err)
		return
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		configErr = err
		return
	}

	scan.Init(AppConfig)
	rules.Init(AppConfig)
	version.Init(AppConfig)
}
