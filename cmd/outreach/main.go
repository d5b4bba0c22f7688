// Command outreach is the operator CLI for the three agent-facing
// capabilities: search investors, send an outreach email, check status.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/seedscout/outreach/internal/config"
	"github.com/seedscout/outreach/internal/database"
	"github.com/seedscout/outreach/internal/investors"
	"github.com/seedscout/outreach/internal/logging"
	"github.com/seedscout/outreach/internal/mailer"
	"github.com/seedscout/outreach/internal/outreach"
	"github.com/seedscout/outreach/internal/token"
)

const usage = `Usage:
  outreach search <query terms>
  outreach send -investor NAME -founder-email EMAIL -founder-name NAME -startup NAME -pitch TEXT
  outreach status <investor email>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	directory, err := investors.Load(cfg.InvestorCSVPath)
	if err != nil {
		logger.Error("failed to load investor directory", "error", err)
		os.Exit(1)
	}
	logger.Info("investor directory loaded", "count", directory.Len())

	svc := outreach.NewService(outreach.Deps{
		Store:         db,
		Sender:        mailer.New(cfg, logger),
		Directory:     directory,
		Tokens:        token.NewSigner([]byte(cfg.AcceptSecret), cfg.AcceptTokenTTL, nil),
		AcceptBaseURL: cfg.AcceptBaseURL,
		FromAddress:   cfg.MailFromAddress,
		Logger:        logger,
	})

	switch os.Args[1] {
	case "search":
		err = runSearch(ctx, svc, os.Args[2:])
	case "send":
		err = runSend(ctx, svc, os.Args[2:])
	case "status":
		err = runStatus(ctx, svc, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runSearch(ctx context.Context, svc outreach.Capabilities, args []string) error {
	query := strings.Join(args, " ")
	result, err := svc.SearchInvestors(ctx, outreach.SearchRequest{Query: query})
	if err != nil {
		return err
	}

	if result.Total == 0 {
		fmt.Printf("No investors found matching the criteria: %q\n", query)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFOCUS AREA\tSTAGE\tEMAIL")
	for _, inv := range result.Matches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", inv.Name, inv.FocusArea, inv.InvestmentStage, inv.Email)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nFound %d total matches. Showing top %d.\n", result.Total, len(result.Matches))
	return nil
}

func runSend(ctx context.Context, svc outreach.Capabilities, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	investorName := fs.String("investor", "", "investor name to contact")
	founderEmail := fs.String("founder-email", "", "founder email address")
	founderName := fs.String("founder-name", "", "founder display name")
	startupName := fs.String("startup", "", "startup name")
	pitch := fs.String("pitch", "", "one-line startup pitch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := svc.SendOutreach(ctx, outreach.SendRequest{
		Session: outreach.Session{
			FounderEmail: *founderEmail,
			FounderName:  *founderName,
			StartupName:  *startupName,
			StartupPitch: *pitch,
		},
		InvestorName: *investorName,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Email successfully sent to %s at %s.", result.InvestorName, result.InvestorEmail)
	if result.Recorded {
		fmt.Println(" (DB record added)")
	} else {
		fmt.Println(" (DB record FAILED)")
	}
	return nil
}

func runStatus(ctx context.Context, svc outreach.Capabilities, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("status requires exactly one investor email")
	}
	email := args[0]

	result, err := svc.CheckStatus(ctx, outreach.StatusRequest{InvestorEmail: email})
	if err != nil {
		return err
	}

	rec := result.Record
	if rec == nil {
		fmt.Printf("No outreach record found for investor email: %s\n", strings.ToLower(strings.TrimSpace(email)))
		return nil
	}

	fmt.Printf("Status for %s: %q. (Outreach sent: %s)", rec.InvestorEmail, rec.Status, rec.SentAt.Format("2006-01-02 15:04"))
	if rec.RepliedAt != nil {
		fmt.Printf(" (Reply detected: %s)", rec.RepliedAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	return nil
}
