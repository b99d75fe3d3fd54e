// Command funcapp is the custom handler executable for the fixture scripts. A functions
// host starts "funcapp serve --script <dir>" for a script directory generated by
// "funcapp generate".
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
