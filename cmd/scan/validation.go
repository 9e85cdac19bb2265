package scan

import (
	"fmt"
	"os"

	"github.com/scan-io-git/leakscan/internal/output"
)

// validateScanArgs validates the arguments provided to the scan command.
func validateScanArgs(options *RunOptionsScan, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("only one artifact can be scanned at a time, got %d", len(args))
	}

	if len(args) == 1 {
		if options.SourceDir != "" {
			return fmt.Errorf("you cannot use a 'source-dir' flag and an artifact path at the same time")
		}
		options.ArtifactPath = args[0]
		info, err := os.Stat(options.ArtifactPath)
		if os.IsNotExist(err) {
			return fmt.Errorf("the artifact does not exist: %v", options.ArtifactPath)
		}
		if err != nil {
			return fmt.Errorf("failed to check the artifact %q: %w", options.ArtifactPath, err)
		}
		if info.IsDir() {
			return fmt.Errorf("the artifact %q is a directory, use the 'source-dir' flag to scan decompiled sources", options.ArtifactPath)
		}
	} else {
		if options.SourceDir == "" {
			return fmt.Errorf("either 'source-dir' flag or an artifact path must be specified")
		}
		if options.DecompilerArgs != "" {
			return fmt.Errorf("the 'args' flag only applies when decompiling an artifact")
		}
	}

	if _, err := output.ParseFormat(options.Format); err != nil {
		return err
	}

	if options.Jobs < 0 {
		return fmt.Errorf("the 'jobs' flag must not be negative")
	}

	return nil
}
