// assistantcli exercises the assistant's rule table and session state
// machine without the HTTP server.
//
// Usage:
//
//	assistantcli ask --role admin how do I manage users
//	assistantcli chat --role rider --page dashboard
//	assistantcli rules [--rules rules.yaml]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
