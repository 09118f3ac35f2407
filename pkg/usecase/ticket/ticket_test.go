package ticket_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/repository"
	"github.com/m-mizutani/harrier/pkg/usecase/ticket"
)

func seedTicket(t *testing.T, repo *repository.Memory, severity model.Severity, status model.TicketStatus) model.TicketID {
	t.Helper()
	ctx := context.Background()

	number := gt.R1(repo.NextTicketNumber(ctx)).NoError(t)
	tk := &model.Ticket{
		ID:        model.NewTicketID(number),
		SessionID: "session-abc",
		Subject:   "Escalated Chat: my VM crashed...",
		Tier:      model.Tier3,
		Severity:  severity,
		Status:    status,
		UserRole:  model.RoleTrainee,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutTicket(ctx, tk))
	return tk.ID
}

func TestListFiltered(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	seedTicket(t, repo, model.SeverityCritical, model.TicketOpen)
	seedTicket(t, repo, model.SeverityMedium, model.TicketOpen)
	seedTicket(t, repo, model.SeverityCritical, model.TicketResolved)

	uc := ticket.New(ticket.NewInput{Repo: repo})

	all := gt.R1(uc.List(ctx, repository.TicketFilter{}, 0)).NoError(t)
	gt.A(t, all).Length(3)

	open := gt.R1(uc.List(ctx, repository.TicketFilter{Status: model.TicketOpen}, 0)).NoError(t)
	gt.A(t, open).Length(2)

	critical := gt.R1(uc.List(ctx, repository.TicketFilter{
		Status:   model.TicketOpen,
		Severity: model.SeverityCritical,
	}, 0)).NoError(t)
	gt.A(t, critical).Length(1)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	id := seedTicket(t, repo, model.SeverityHigh, model.TicketOpen)

	uc := ticket.New(ticket.NewInput{Repo: repo})

	tk := gt.R1(uc.Get(ctx, id)).NoError(t)
	gt.V(t, tk.ID).Equal(id)

	_, err := uc.Get(ctx, model.TicketID("TICKET-9999"))
	gt.Error(t, err).Is(repository.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	id := seedTicket(t, repo, model.SeverityHigh, model.TicketOpen)

	uc := ticket.New(ticket.NewInput{Repo: repo})

	tk := gt.R1(uc.UpdateStatus(ctx, id, model.TicketInProgress)).NoError(t)
	gt.V(t, tk.Status).Equal(model.TicketInProgress)

	stored := gt.R1(repo.GetTicket(ctx, id)).NoError(t)
	gt.V(t, stored.Status).Equal(model.TicketInProgress)

	gt.R1(uc.UpdateStatus(ctx, id, model.TicketResolved)).NoError(t)

	// Finalized tickets stay finalized.
	_, err := uc.UpdateStatus(ctx, id, model.TicketOpen)
	gt.Error(t, err).Is(model.ErrInvalidStatus)
}
