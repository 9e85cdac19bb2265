package shared

import "github.com/spf13/pflag"

// HasFlags reports whether any flag of the set was set on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	found := false
	flags.Visit(func(*pflag.Flag) {
		found = true
	})
	return found
}
