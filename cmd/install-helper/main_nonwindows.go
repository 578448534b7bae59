//go:build !windows

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "install-helper is only supported on windows")
	os.Exit(1)
}
