package main

import (
	"github.com/mgorriz/ajp-results/internal/cli"
)

func main() {
	cli.Execute()
}
