package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/repository"
	"github.com/m-mizutani/harrier/pkg/usecase/ticket"
	"github.com/urfave/cli/v3"
)

func ticketCommand() *cli.Command {
	return &cli.Command{
		Name:  "ticket",
		Usage: "Manage escalation tickets",
		Commands: []*cli.Command{
			ticketListCommand(),
			ticketShowCommand(),
			ticketResolveCommand(),
		},
	}
}

func ticketListCommand() *cli.Command {
	var (
		cfg      config
		status   string
		tier     string
		severity string
		limit    int
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "status",
			Usage:       "Filter by status (OPEN, IN_PROGRESS, RESOLVED, CLOSED, ESCALATED)",
			Destination: &status,
		},
		&cli.StringFlag{
			Name:        "tier",
			Usage:       "Filter by tier (TIER_0 .. TIER_4)",
			Destination: &tier,
		},
		&cli.StringFlag{
			Name:        "severity",
			Usage:       "Filter by severity (LOW, MEDIUM, HIGH, CRITICAL)",
			Destination: &severity,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of tickets to show",
			Value:       ticket.DefaultListLimit,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List escalation tickets",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			filter, err := buildTicketFilter(status, tier, severity)
			if err != nil {
				return err
			}

			uc, err := buildTicketUseCase(ctx, &cfg)
			if err != nil {
				return err
			}

			tickets, err := uc.List(ctx, filter, limit)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(tickets) == 0 {
				fmt.Fprintf(w, "No tickets found\n")
				return nil
			}
			for _, tk := range tickets {
				fmt.Fprintf(w, "%s  %-11s %-8s %-8s %s\n",
					tk.ID, tk.Status, tk.Tier, tk.Severity, tk.Subject)
			}
			return nil
		},
	}
}

func ticketShowCommand() *cli.Command {
	var cfg config
	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show one ticket in full",
		ArgsUsage: "<ticket-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			id := c.Args().First()
			if id == "" {
				return goerr.New("ticket ID is required")
			}

			uc, err := buildTicketUseCase(ctx, &cfg)
			if err != nil {
				return err
			}

			tk, err := uc.Get(ctx, model.TicketID(id))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "ID:        %s\n", tk.ID)
			fmt.Fprintf(w, "Status:    %s\n", tk.Status)
			fmt.Fprintf(w, "Tier:      %s\n", tk.Tier)
			fmt.Fprintf(w, "Severity:  %s\n", tk.Severity)
			fmt.Fprintf(w, "Session:   %s\n", tk.SessionID)
			fmt.Fprintf(w, "Role:      %s\n", tk.UserRole)
			fmt.Fprintf(w, "Created:   %s\n", tk.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "Subject:   %s\n", tk.Subject)
			fmt.Fprintf(w, "\n%s\n", tk.Description)
			if tk.AIAnalysis != "" {
				fmt.Fprintf(w, "\nAnalysis: %s\n", tk.AIAnalysis)
			}
			return nil
		},
	}
}

func ticketResolveCommand() *cli.Command {
	var cfg config
	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:      "resolve",
		Usage:     "Mark a ticket as resolved",
		ArgsUsage: "<ticket-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			id := c.Args().First()
			if id == "" {
				return goerr.New("ticket ID is required")
			}

			uc, err := buildTicketUseCase(ctx, &cfg)
			if err != nil {
				return err
			}

			tk, err := uc.UpdateStatus(ctx, model.TicketID(id), model.TicketResolved)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Ticket %s resolved\n", tk.ID)
			return nil
		},
	}
}

func buildTicketFilter(status, tierValue, severity string) (repository.TicketFilter, error) {
	var filter repository.TicketFilter

	if status != "" {
		filter.Status = model.TicketStatus(status)
		if err := filter.Status.Validate(); err != nil {
			return filter, err
		}
	}
	if tierValue != "" {
		filter.Tier = model.Tier(tierValue)
		if err := filter.Tier.Validate(); err != nil {
			return filter, err
		}
	}
	if severity != "" {
		filter.Severity = model.Severity(severity)
		if err := filter.Severity.Validate(); err != nil {
			return filter, err
		}
	}

	return filter, nil
}

func buildTicketUseCase(ctx context.Context, cfg *config) (*ticket.UseCase, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}
	return ticket.New(ticket.NewInput{Repo: repo}), nil
}
