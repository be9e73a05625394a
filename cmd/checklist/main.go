package main

import (
	"context"
	"os"

	"github.com/idilsaglam/checklist/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
