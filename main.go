package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/cardbridge/internal/cli"
	"github.com/mrlokans/cardbridge/internal/config"
	"github.com/mrlokans/cardbridge/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "check-backend":
		cmd := cli.NewCheckBackendCommand()
		if err := cmd.ParseFlags(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version":
		fmt.Printf("cardbridge %s (%s)\n", Version, Commit)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [command]\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  serve          Start the webhook server (default)")
	fmt.Println("  check-backend  Check connectivity to the flashcard service")
	fmt.Println("  version        Print version information")
	fmt.Println("  help           Show this help message")
}
