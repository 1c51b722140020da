// Command beetl builds, inverts, and co-traverses external-memory
// multi-string BWTs, per spec §6's CLI surface: a bwt verb to construct,
// unbwt to invert, compare to co-traverse two constructions.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "bwt":
		err = runBWT(os.Args[2:])
	case "unbwt":
		err = runUnbwt(os.Args[2:])
	case "compare":
		err = runCompare(os.Args[2:])
	case "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "beetl: unknown verb %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "beetl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: beetl {bwt|unbwt|compare} [flags]")
}
