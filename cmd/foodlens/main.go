package main

import (
	"os"

	"github.com/example/foodlens/internal/cli"
)

func main() {
	code := cli.Run(os.Args[1:])
	os.Exit(code)
}
