// Command ledgerstats prints portfolio and platform metrics for an exported
// ledger file.
//
//	ledgerstats [-user UUID] [-tz Europe/Berlin] [-now RFC3339] ledger.json
//
// With no file argument, or "-", the ledger is read from stdin.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"vaultspark/internal/analytics"
	id "vaultspark/pkg/domain"
)

type report struct {
	Rows      int                       `json:"rows"`
	Portfolio *analytics.PortfolioStats `json:"portfolio,omitempty"`
	Platform  analytics.PlatformStats   `json:"platform"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerstats: %v\n", err)
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("ledgerstats", flag.ContinueOnError)
	user := fs.String("user", "", "scope portfolio stats to this user id")
	tz := fs.String("tz", "Local", "time zone for volume by day")
	nowFlag := fs.String("now", "", "reference time (RFC3339), defaults to the current time")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("time zone: %w", err)
	}
	now := time.Now()
	if *nowFlag != "" {
		if now, err = time.Parse(time.RFC3339, *nowFlag); err != nil {
			return fmt.Errorf("now: %w", err)
		}
	}

	in := stdin
	if path := fs.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	txs, err := analytics.DecodeTransactions(in)
	if err != nil {
		return err
	}

	out := report{
		Rows:     len(txs),
		Platform: analytics.Platform(analytics.PlatformInput{Transactions: txs}, now, loc),
	}
	if *user != "" {
		userID, err := id.ParseUserID(*user)
		if err != nil {
			return fmt.Errorf("user: %w", err)
		}
		stats := analytics.Portfolio(userID, txs)
		out.Portfolio = &stats
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
