package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/usecase/chat"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		sessionID string
		userRole  string
		message   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID, generated when omitted",
			Sources:     cli.EnvVars("HARRIER_SESSION"),
			Destination: &sessionID,
		},
		&cli.StringFlag{
			Name:        "role",
			Usage:       "User role (trainee, operator, instructor, admin, support_engineer)",
			Value:       string(model.RoleTrainee),
			Sources:     cli.EnvVars("HARRIER_ROLE"),
			Destination: &userRole,
		},
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "Send a single message and exit instead of starting the interactive session",
			Destination: &message,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Ask the help desk assistant",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			role := model.UserRole(userRole)
			if err := role.Validate(); err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = uuid.New().String()
			}

			uc, err := buildChatUseCase(ctx, &cfg)
			if err != nil {
				return err
			}

			w := c.Root().Writer

			if message != "" {
				return sendMessage(ctx, uc, w, sessionID, role, message)
			}

			fmt.Fprintf(w, "Help desk session %s started. Type 'exit' to quit.\n", sessionID)

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize prompt")
			}
			defer rl.Close()

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				if line == "exit" {
					break
				}
				if line == "" {
					continue
				}

				if err := sendMessage(ctx, uc, w, sessionID, role, line); err != nil {
					return err
				}
			}

			fmt.Fprintf(w, "\nSession ended\n")
			return nil
		},
	}
}

func buildChatUseCase(ctx context.Context, cfg *config) (*chat.UseCase, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	llm, err := cfg.newLLM(gemini)
	if err != nil {
		return nil, err
	}

	guard, err := cfg.newGuardrail(ctx, gemini)
	if err != nil {
		return nil, err
	}

	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}

	var opts []chat.Option
	if storage != nil {
		opts = append(opts, chat.WithStorage(storage))
	}

	return chat.New(chat.NewInput{
		Repo:      repo,
		LLM:       llm,
		Embedder:  gemini,
		Guard:     guard,
		Retriever: cfg.newRetriever(),
	}, opts...), nil
}

func sendMessage(ctx context.Context, uc *chat.UseCase, w io.Writer, sessionID string, role model.UserRole, message string) error {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " thinking..."
	sp.Start()

	resp, err := uc.Handle(ctx, &model.ChatRequest{
		SessionID: sessionID,
		Message:   message,
		UserRole:  role,
	})
	sp.Stop()
	if err != nil {
		return goerr.Wrap(err, "failed to process message")
	}

	fmt.Fprintf(w, "\n%s\n", resp.Answer)

	if len(resp.References) > 0 {
		fmt.Fprintf(w, "\nReferences:\n")
		for _, ref := range resp.References {
			fmt.Fprintf(w, "  [%s] %s\n", ref.ID, ref.Title)
		}
	}

	fmt.Fprintf(w, "\n(tier: %s, severity: %s, confidence: %.2f)\n", resp.Tier, resp.Severity, resp.Confidence)
	if resp.TicketID != "" {
		fmt.Fprintf(w, "Ticket: %s\n", resp.TicketID)
	}

	return nil
}
