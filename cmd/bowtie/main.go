// bowtie converts bowtie risk tables into Bayesian networks and runs
// scenario analysis on them.
//
// Usage:
//
//	bowtie graph     <records> [--snapshot-out <path>]
//	bowtie fit       <records> [--snapshot-out <path>]
//	bowtie query     <records>|--snapshot <path> [--evidence NODE=STATE]... [--target NODE]...
//	bowtie propagate <records>|--snapshot <path> --evidence NODE=STATE...
//	bowtie critical  <records>|--snapshot <path> [--target NODE]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
