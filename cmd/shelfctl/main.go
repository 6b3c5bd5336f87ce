// Command shelfctl compiles and inspects catalog searches and seeds the
// catalog store.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
