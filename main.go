package main

import (
	"os"

	"github.com/scan-io-git/leakscan/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
