package ticket

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/repository"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
)

// DefaultListLimit caps List results when the caller does not specify one.
const DefaultListLimit = 50

// UseCase exposes ticket lifecycle operations for support engineers.
type UseCase struct {
	repo repository.Repository
}

// NewInput contains the required collaborators for ticket management.
type NewInput struct {
	Repo repository.Repository
}

func New(input NewInput) *UseCase {
	return &UseCase{repo: input.Repo}
}

// List returns tickets matching the filter, newest first.
func (uc *UseCase) List(ctx context.Context, filter repository.TicketFilter, limit int) ([]*model.Ticket, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	tickets, err := uc.repo.ListTickets(ctx, filter, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets")
	}
	return tickets, nil
}

// Get retrieves one ticket by ID.
func (uc *UseCase) Get(ctx context.Context, id model.TicketID) (*model.Ticket, error) {
	ticket, err := uc.repo.GetTicket(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("ticket_id", id))
	}
	return ticket, nil
}

// UpdateStatus transitions a ticket to a new status and persists it.
// Finalized tickets (RESOLVED, CLOSED) reject further transitions.
func (uc *UseCase) UpdateStatus(ctx context.Context, id model.TicketID, next model.TicketStatus) (*model.Ticket, error) {
	ticket, err := uc.repo.GetTicket(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("ticket_id", id))
	}

	if err := ticket.Transition(next); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateTicket(ctx, ticket); err != nil {
		return nil, goerr.Wrap(err, "failed to update ticket", goerr.V("ticket_id", id))
	}

	logging.From(ctx).Info("ticket updated", "ticket_id", id, "status", next)
	return ticket, nil
}
