// Command agentctl is a developer tool for inspecting how the gateway
// normalizes agent documents and formats subject identifiers. It makes no
// remote calls.
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
