// Command rescue serves the animal rescue GraphQL API over HTTP or from AWS
// Lambda.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
