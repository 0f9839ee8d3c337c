package voice

import (
	"sync"

	"go.uber.org/zap"
)

// ConversationFactory builds a conversation for a session id. The pool calls
// it at most once per live session.
type ConversationFactory func(sessionID string) *Conversation

// Pool tracks the live conversation for each briefing session. GetOrCreate
// guarantees concurrent callers for the same id share one conversation.
type Pool struct {
	mu      sync.Mutex
	active  map[string]*Conversation
	factory ConversationFactory
	log     *zap.Logger
}

func NewPool(factory ConversationFactory, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		active:  make(map[string]*Conversation),
		factory: factory,
		log:     log,
	}
}

// GetOrCreate returns the live conversation for the session, creating it on
// first use.
func (p *Pool) GetOrCreate(sessionID string) *Conversation {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conv, ok := p.active[sessionID]; ok {
		return conv
	}
	conv := p.factory(sessionID)
	p.active[sessionID] = conv
	p.log.Info("conversation registered", zap.String("session_id", sessionID), zap.Int("active", len(p.active)))
	return conv
}

// Get returns the live conversation for the session, or nil.
func (p *Pool) Get(sessionID string) *Conversation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active[sessionID]
}

// Remove closes and unregisters the session's conversation. Removing an
// unknown session is a no-op.
func (p *Pool) Remove(sessionID string) {
	p.mu.Lock()
	conv, ok := p.active[sessionID]
	if ok {
		delete(p.active, sessionID)
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	conv.Close()
	p.log.Info("conversation removed", zap.String("session_id", sessionID))
}

// CleanupAll closes every live conversation. Used on shutdown.
func (p *Pool) CleanupAll() {
	p.mu.Lock()
	drained := p.active
	p.active = make(map[string]*Conversation)
	p.mu.Unlock()

	for id, conv := range drained {
		conv.Close()
		p.log.Info("conversation removed", zap.String("session_id", id))
	}
	p.log.Info("conversation pool drained", zap.Int("count", len(drained)))
}

// ActiveSessions returns the ids with a live conversation.
func (p *Pool) ActiveSessions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.active))
	for id := range p.active {
		ids = append(ids, id)
	}
	return ids
}
