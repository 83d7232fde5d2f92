package main

import (
	"os"

	"github.com/zauns/job-search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
