// Command plenzo-cli runs a single deal search from the terminal and prints
// the result list as indented JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/plenzo-app/plenzo/config"
	"github.com/plenzo-app/plenzo/scraper"
)

const fallbackTerm = "laptop"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Keep stdout clean for the JSON output.
	level := slog.LevelWarn
	if cfg.Log.Level == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	term := termFromArgsOrPrompt()

	fmt.Fprintf(os.Stderr, "Finding the best deals for: %q...\n", term)

	sc, err := scraper.New(cfg.Browser, cfg.Search)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start browser:", err)
		os.Exit(1)
	}
	defer sc.Close()

	deals, err := sc.Search(context.Background(), term)
	if err != nil {
		fmt.Fprintln(os.Stderr, "search failed:", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(deals, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode results:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// termFromArgsOrPrompt joins the command line arguments into a search term,
// prompting interactively when none are given. Falls back to a default term
// when the input is empty.
func termFromArgsOrPrompt() string {
	if len(os.Args) > 1 {
		if term := strings.TrimSpace(strings.Join(os.Args[1:], " ")); term != "" {
			return term
		}
	}

	fmt.Fprint(os.Stderr, "Enter item to find deals for: ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	if term := strings.TrimSpace(line); term != "" {
		return term
	}
	return fallbackTerm
}
