package rules

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	catalog "github.com/scan-io-git/leakscan/internal/rules"
	"github.com/scan-io-git/leakscan/pkg/shared/config"
	"github.com/scan-io-git/leakscan/pkg/shared/errors"
	"github.com/scan-io-git/leakscan/pkg/shared/logger"
)

// RunOptionsRules holds the arguments for the rules command.
type RunOptionsRules struct {
	PatternPath string
	Verbose     bool
}

var (
	AppConfig         *config.Config
	rulesOptions      RunOptionsRules
	exampleRulesUsage = `  # Listing the default catalog
  leakscan rules

  # Listing a custom catalog together with its patterns
  leakscan rules --pattern /path/to/regexes.json -v`
)

// RulesCmd represents the rules command.
var RulesCmd = &cobra.Command{
	Use:                   "rules [--pattern PATH] [-v]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleRulesUsage,
	Short:                 "Lists the rules of the loaded catalog",
	Args:                  cobra.NoArgs,
	RunE:                  runRulesCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

func runRulesCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLoggerTo(AppConfig, "core-rules", cmd.ErrOrStderr())

	path := rulesOptions.PatternPath
	if path == "" && AppConfig != nil {
		path = AppConfig.Leakscan.RulesPath
	}

	rules, err := catalog.Load(path)
	if err != nil {
		logger.Error("failed to load rule catalog", "error", err)
		return errors.NewCommandError(err)
	}

	source := path
	if source == "" {
		source = catalog.DefaultSource
	}
	printCatalog(cmd.OutOrStdout(), source, rules, rulesOptions.Verbose)
	return nil
}

func printCatalog(w io.Writer, source string, rules []catalog.Rule, verbose bool) {
	fmt.Fprintf(w, "Catalog: %s\n", source)
	for _, r := range rules {
		noun := "patterns"
		if len(r.Patterns) == 1 {
			noun = "pattern"
		}
		fmt.Fprintf(w, "  %s (%d %s)\n", r.Name, len(r.Patterns), noun)
		if verbose {
			for _, p := range r.Patterns {
				fmt.Fprintf(w, "      %s\n", p)
			}
		}
	}
	fmt.Fprintf(w, "Total: %d rules, %d patterns\n", len(rules), catalog.CountPatterns(rules))
}

func init() {
	RulesCmd.Flags().StringVarP(&rulesOptions.PatternPath, "pattern", "p", "", "Path to a custom rule catalog in JSON or YAML.")
	RulesCmd.Flags().BoolVarP(&rulesOptions.Verbose, "verbose", "v", false, "Print the patterns of every rule.")
}
