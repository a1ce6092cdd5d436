// Command reap3r-historyctl lists or clears the agent's local job-history
// ledger directly against its BoltDB file, the same flag-driven
// direct-bbolt-access pattern as the teacher's cmd/inject-queue.
// Usage: reap3r-historyctl -db /etc/massvision/reap3r/history.db -list
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/massvision/reap3r/internal/history"
)

func main() {
	dbPath := flag.String("db", "/etc/massvision/reap3r/history.db", "path to the agent's history.db")
	list := flag.Bool("list", false, "list recent job-history entries")
	limit := flag.Int("limit", 20, "maximum number of entries to list, newest first")
	clear := flag.Bool("clear", false, "delete every entry in the ledger")
	flag.Parse()

	if !*list && !*clear {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -list or -clear")
		flag.Usage()
		os.Exit(2)
	}

	store, err := history.Open(*dbPath, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open history db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *clear {
		if err := store.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "clear history: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("history cleared")
		return
	}

	entries, err := store.List(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list history: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("no history entries")
		return
	}
	for _, e := range entries {
		exitCode := "-"
		if e.ExitCode != nil {
			exitCode = fmt.Sprintf("%d", *e.ExitCode)
		}
		errMsg := ""
		if e.ErrorMessage != nil {
			errMsg = "  error=" + *e.ErrorMessage
		}
		completedAt := time.Unix(e.CompletedAt, 0).UTC().Format(time.RFC3339)
		fmt.Printf("%s  job=%s  type=%s  status=%s  exit=%s%s\n",
			completedAt, e.JobID, e.JobType, e.Status, exitCode, errMsg)
	}
}
