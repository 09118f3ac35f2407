package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/model"
)

// Memory is an in-memory Repository for tests and local experiments. Safe for
// concurrent use; ticket numbers are allocated under the same lock that
// guards the ticket map, matching the serialization the Firestore counter
// transaction provides.
type Memory struct {
	mu            sync.Mutex
	chunks        map[model.ChunkID]*model.KnowledgeChunk
	chunkOrder    []model.ChunkID
	conversations map[model.ConversationID]*model.Conversation
	messages      map[model.ConversationID][]*model.Message
	events        []*model.GuardrailEvent
	tickets       map[model.TicketID]*model.Ticket
	ticketOrder   []model.TicketID
	ticketCounter int64
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		chunks:        make(map[model.ChunkID]*model.KnowledgeChunk),
		conversations: make(map[model.ConversationID]*model.Conversation),
		messages:      make(map[model.ConversationID][]*model.Message),
		tickets:       make(map[model.TicketID]*model.Ticket),
	}
}

func (m *Memory) PutChunk(ctx context.Context, chunk *model.KnowledgeChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chunks[chunk.ID]; !ok {
		m.chunkOrder = append(m.chunkOrder, chunk.ID)
	}
	c := *chunk
	m.chunks[chunk.ID] = &c
	return nil
}

func (m *Memory) ListChunks(ctx context.Context) ([]*model.KnowledgeChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunks := make([]*model.KnowledgeChunk, 0, len(m.chunkOrder))
	for _, id := range m.chunkOrder {
		c := *m.chunks[id]
		chunks = append(chunks, &c)
	}
	return chunks, nil
}

func (m *Memory) DeleteChunksByDocTitle(ctx context.Context, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	keep := m.chunkOrder[:0]
	for _, id := range m.chunkOrder {
		if m.chunks[id].Metadata.OriginalDocTitle == title {
			delete(m.chunks, id)
			continue
		}
		keep = append(keep, id)
	}
	m.chunkOrder = keep
	return nil
}

func (m *Memory) GetConversation(ctx context.Context, id model.ConversationID) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "conversation not found", goerr.V("conversation_id", id))
	}
	c := *conv
	return &c, nil
}

func (m *Memory) PutConversation(ctx context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *conv
	m.conversations[conv.ID] = &c
	return nil
}

func (m *Memory) ListRecentMessages(ctx context.Context, id model.ConversationID, limit int) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[id]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*model.Message, len(msgs))
	for i, msg := range msgs {
		c := *msg
		out[i] = &c
	}
	return out, nil
}

func (m *Memory) PutMessage(ctx context.Context, id model.ConversationID, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *msg
	m.messages[id] = append(m.messages[id], &c)
	return nil
}

func (m *Memory) PutGuardrailEvent(ctx context.Context, event *model.GuardrailEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *event
	m.events = append(m.events, &e)
	return nil
}

// GuardrailEvents returns the recorded events for test assertions
func (m *Memory) GuardrailEvents() []*model.GuardrailEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.GuardrailEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) NextTicketNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketCounter++
	return m.ticketCounter, nil
}

func (m *Memory) PutTicket(ctx context.Context, ticket *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticket.ID]; !ok {
		m.ticketOrder = append(m.ticketOrder, ticket.ID)
	}
	t := *ticket
	m.tickets[ticket.ID] = &t
	return nil
}

func (m *Memory) GetTicket(ctx context.Context, id model.TicketID) (*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", id))
	}
	t := *ticket
	return &t, nil
}

func (m *Memory) ListTickets(ctx context.Context, filter TicketFilter, limit int) ([]*model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tickets []*model.Ticket
	for _, id := range m.ticketOrder {
		ticket := m.tickets[id]
		if filter.Status != "" && ticket.Status != filter.Status {
			continue
		}
		if filter.Tier != "" && ticket.Tier != filter.Tier {
			continue
		}
		if filter.Severity != "" && ticket.Severity != filter.Severity {
			continue
		}
		t := *ticket
		tickets = append(tickets, &t)
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	if len(tickets) > limit {
		tickets = tickets[:limit]
	}
	return tickets, nil
}

func (m *Memory) UpdateTicket(ctx context.Context, ticket *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticket.ID]; !ok {
		return goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", ticket.ID))
	}
	t := *ticket
	m.tickets[ticket.ID] = &t
	return nil
}
