package main

import (
	"os"

	"github.com/buemura/contractlens/internal/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.Execute()))
}
