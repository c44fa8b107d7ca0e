package main

import (
	"fmt"
	"os"

	"github.com/agiangrant/glview/cmd/glview/commands"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = commands.Init(args)
	case "check":
		err = commands.Check(args)
	case "replay":
		err = commands.Replay(args)
	case "version", "-v", "--version":
		fmt.Printf("glview version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`glview - GL surface view driver

Usage: glview <command> [options]

Commands:
  init            Write a default glview.toml
  check           Load the engine library and list its entry points
  replay          Play a scripted event sequence through a view
  version         Print version information
  help            Show this help message

Examples:
  glview init                          Create glview.toml in this directory
  glview check --lib ./libengine.so    Verify an engine build
  glview replay --script tap.toml      Replay input against the engine
  glview replay --script tap.toml --dry-run

Configuration:
  glview.toml is looked up in the working directory and its parents.
  GLVIEW_LIB_PATH overrides the library search path.`)
}
