// Command pmdesk is a terminal client for the project-management API.
//
// Settings come from PMDESK_* environment variables; see
// internal/infrastructure/config. The session is kept between runs in the
// configured storage, so `pmdesk login` only has to be run once.
package main

import (
	"context"
	"os"

	"github.com/pmdesk/pmdesk/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], cli.Env{}))
}
