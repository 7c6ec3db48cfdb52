package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spektr-org/salesq/translator"
)

// Session is one conversation. Turns are serialised; the history only
// grows by successful turns and is reset only by Clear.
type Session struct {
	id        string
	assistant *Assistant

	mu         sync.Mutex
	history    []translator.Turn
	answers    []*Answer
	lastTable  *Answer
	lastActive atomic.Int64
}

// NewSession starts an empty conversation.
func (a *Assistant) NewSession(id string) *Session {
	s := &Session{id: id, assistant: a}
	s.touch()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Ask answers question in the context of the previous turns.
// On error the history is left exactly as it was.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	ans, err := s.assistant.answer(ctx, question, s.history)
	if err != nil {
		return nil, err
	}

	s.history = append(s.history, translator.Turn{Question: ans.Question, Spec: ans.Spec.Clone()})
	s.answers = append(s.answers, ans)
	if ans.Response.Export != nil {
		s.lastTable = ans
	}
	return ans, nil
}

// History returns a copy of the answered turns, oldest first.
func (s *Session) History() []translator.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]translator.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Answers returns a copy of the answers, oldest first.
func (s *Session) Answers() []*Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// LastTable returns the most recent answer carrying an export table.
func (s *Session) LastTable() (*Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTable, s.lastTable != nil
}

// Clear forgets every turn.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.answers = nil
	s.lastTable = nil
	s.touch()
}

// Len returns the number of answered turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func (s *Session) touch() {
	s.lastActive.Store(s.assistant.now().UnixNano())
}

// LastActive reports when the session last received a question.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}
