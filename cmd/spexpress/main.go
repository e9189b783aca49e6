// Spexpress sends Basic-authenticated requests to a JSON API and journals
// every exchange.
//
// Usage:
//
//	spexpress get  <url> [key=value | key:=json ...]
//	spexpress post <url> [key=value | key:=json ...]
//	spexpress run <calls.yaml>
//	spexpress history [--limit N]
//	spexpress version
//
// Credentials and defaults come from SPEXPRESS_* environment variables or
// configs/.env; --login and --token override them per invocation.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
