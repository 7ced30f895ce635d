package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuysCode/giovannibot/backend/internal/model/chat"
	"github.com/BuysCode/giovannibot/backend/internal/model/region"
	"github.com/BuysCode/giovannibot/backend/internal/service/ai"
)

// ApologyMessage replaces the assistant reply whenever a completion fails.
const ApologyMessage = "Desculpe, ocorreu um erro ao processar sua solicitação. Por favor, tente novamente mais tarde."

// Completer produces the assistant reply for a question about topic.
type Completer interface {
	Complete(ctx context.Context, topic, userMessage string) (string, error)
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithLogger sets the diagnostic logger for completion failures.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp turns.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultRegion sets the topic used when a region name is blank.
func WithDefaultRegion(name string) SessionOption {
	return func(s *Session) {
		s.fallback = name
	}
}

// Session is the chat controller for one region view. Its transcript and
// status change only through Submit and ChangeRegion.
type Session struct {
	id        string
	completer Completer
	logger    *zap.Logger
	now       func() time.Time
	fallback  string

	mu          sync.Mutex
	topic       string
	turns       []chat.Turn
	status      chat.Status
	epoch       uint64
	updatedAt   time.Time
	closed      bool
	subscribers map[int]chan chat.Snapshot
	nextSubID   int
}

// NewSession creates an idle session scoped to regionName.
func NewSession(id, regionName string, completer Completer, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		completer:   completer,
		logger:      zap.NewNop(),
		now:         time.Now,
		fallback:    region.DefaultTopic,
		status:      chat.StatusIdle,
		subscribers: make(map[int]chan chat.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", id))
	s.topic = region.NormalizeTopic(regionName, s.fallback)
	s.updatedAt = s.now().UTC()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Topic returns the active region topic.
func (s *Session) Topic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topic
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// request ties an in-flight completion to the region epoch it was sent in.
type request struct {
	epoch uint64
	topic string
	text  string
}

// Submit appends a user turn and asks the completer for a reply in the
// background. Blank text, or text sent while a reply is pending, is ignored:
// accepted is false and done is already closed. Otherwise done closes once
// the reply (or the apology) has been applied or discarded.
//
// The completion does not inherit ctx's cancellation; only its values.
func (s *Session) Submit(ctx context.Context, text string) (done <-chan struct{}, accepted bool) {
	ch := make(chan struct{})
	if strings.TrimSpace(text) == "" {
		close(ch)
		return ch, false
	}

	s.mu.Lock()
	if s.closed || s.status == chat.StatusSending {
		s.mu.Unlock()
		close(ch)
		return ch, false
	}
	s.appendLocked(chat.RoleUser, text)
	s.status = chat.StatusSending
	req := request{epoch: s.epoch, topic: s.topic, text: text}
	s.publishLocked()
	s.mu.Unlock()

	go s.complete(context.WithoutCancel(ctx), req, ch)
	return ch, true
}

func (s *Session) complete(ctx context.Context, req request, done chan struct{}) {
	defer close(done)

	reply, err := s.completer.Complete(ctx, req.topic, req.text)
	if err != nil {
		s.logger.Warn("completion failed, replying with apology",
			zap.String("topic", req.topic),
			zap.String("kind", ai.KindOf(err)),
			zap.Error(err),
		)
		reply = ApologyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.epoch != s.epoch {
		s.logger.Info("discarding completion for a previous region",
			zap.String("requestTopic", req.topic),
			zap.String("activeTopic", s.topic),
		)
		return
	}

	s.appendLocked(chat.RoleAssistant, reply)
	s.status = chat.StatusIdle
	s.publishLocked()
}

// ChangeRegion clears the transcript, returns to idle and rescopes the
// session. Any reply still in flight will be dropped on arrival.
func (s *Session) ChangeRegion(regionName string) chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topic = region.NormalizeTopic(regionName, s.fallback)
	s.turns = nil
	s.status = chat.StatusIdle
	s.epoch++
	s.updatedAt = s.now().UTC()
	s.publishLocked()
	return s.snapshotLocked()
}

// Subscribe streams a snapshot after every mutation, starting with the
// current state. Slow readers only ever see the newest snapshot. The channel
// is closed by cancel or when the session is closed.
func (s *Session) Subscribe() (<-chan chat.Snapshot, func()) {
	ch := make(chan chat.Snapshot, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	ch <- s.snapshotLocked()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Close discards the transcript and disconnects subscribers. Further submits
// are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.turns = nil
	s.status = chat.StatusIdle
	s.epoch++
	for id, sub := range s.subscribers {
		delete(s.subscribers, id)
		close(sub)
	}
}

func (s *Session) appendLocked(role chat.Role, content string) {
	now := s.now().UTC()
	s.turns = append(s.turns, chat.Turn{Role: role, Content: content, Timestamp: now})
	s.updatedAt = now
}

func (s *Session) snapshotLocked() chat.Snapshot {
	turns := make([]chat.Turn, len(s.turns))
	copy(turns, s.turns)
	return chat.Snapshot{
		ID:        s.id,
		Topic:     s.topic,
		Status:    s.status,
		Turns:     turns,
		UpdatedAt: s.updatedAt,
	}
}

func (s *Session) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, sub := range s.subscribers {
		select {
		case sub <- snap:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-sub:
			default:
			}
			sub <- snap
		}
	}
}
