// Command itemsctl manages items through the REST API, either one
// subcommand at a time or in an interactive terminal list.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/ghuser/itemsapi/pkg/itemsclient"
)

const defaultAPIURL = "http://localhost:3001/api"

func main() {
	fs := flag.NewFlagSet("itemsctl", flag.ExitOnError)
	apiURL := fs.String("api", envOr("ITEMS_API_URL", defaultAPIURL), "items API base URL")
	timeout := fs.Duration("timeout", 10*time.Second, "per-request timeout")
	fs.Usage = func() { printHelp(os.Stderr) }
	_ = fs.Parse(os.Args[1:])

	r := &runner{
		api:     itemsclient.New(*apiURL),
		out:     os.Stdout,
		errOut:  os.Stderr,
		timeout: *timeout,
	}
	os.Exit(r.Run(fs.Args()))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
