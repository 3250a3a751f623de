package main

import (
	"fmt"
	"os"

	_ "github.com/mtibben/androiddnsfix"
	"github.com/npc-z/minihttpie"
)

func main() {
	if err := minihttpie.Main(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(minihttpie.ExitStatus(err))
	}
}
