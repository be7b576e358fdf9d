// Package cli contains the one-shot maintenance commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/cardbridge/internal/config"
	"github.com/mrlokans/cardbridge/internal/entrypoint"
)

// CheckBackendCommand verifies that the configured flashcard service is
// reachable with the current credentials.
type CheckBackendCommand struct {
	Backend string
	Timeout time.Duration
}

// NewCheckBackendCommand creates a new CheckBackendCommand.
func NewCheckBackendCommand() *CheckBackendCommand {
	return &CheckBackendCommand{}
}

// ParseFlags parses command line flags.
func (cmd *CheckBackendCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("check-backend", flag.ExitOnError)

	fs.StringVar(&cmd.Backend, "backend", "", "Backend to check: anki or mochi (default: from environment)")
	fs.DurationVar(&cmd.Timeout, "timeout", 10*time.Second, "Connection check timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s check-backend [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Check connectivity to the configured flashcard service.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s check-backend\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s check-backend -backend mochi\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the connectivity check.
func (cmd *CheckBackendCommand) Run() error {
	cfg := config.NewConfig()

	name := config.BackendName(cmd.Backend)
	if name == "" {
		name = cfg.Flashcards.Backend
	}

	backend, err := entrypoint.BuildBackend(name, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	fmt.Printf("Checking %s...\n", backend.Name())
	if !backend.CheckConnection(ctx) {
		return fmt.Errorf("%s is not reachable", backend.Name())
	}

	fmt.Printf("✅ %s is reachable\n", backend.Name())
	return nil
}
