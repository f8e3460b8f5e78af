package chat

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"
)

// ErrBusy is returned when a session is asked to change while an agent call is in flight
var ErrBusy = errors.New("session is waiting for the agent")

// State is the position of a session in its Idle -> AwaitingAgent -> Idle cycle
type State int

const (
	StateIdle State = iota
	StateAwaitingAgent
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAgent:
		return "awaiting_agent"
	default:
		return "unknown"
	}
}

// Session holds the two turn logs of one user session.
//
// The context log is what the agent sees: it starts with the system turn and stores user input truncated to
// MaxUserInputChars. The display log is what the user sees: no system turn, and user input exactly as typed. Both logs
// grow in lockstep, so len(DisplayLog) == len(ContextLog)-1 always holds.
type Session struct {
	id string

	mu         sync.Mutex
	contextLog []Turn
	displayLog []Turn
	state      State
	lastActive time.Time
}

// NewSession creates an initialized session
func NewSession(id string) *Session {
	s := &Session{id: id}
	s.Initialize()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Initialize seeds the context log with the system turn and empties the display log
func (s *Session) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialize()
}

func (s *Session) initialize() {
	s.contextLog = []Turn{{Role: RoleSystem, Content: SystemPrompt}}
	s.displayLog = []Turn{}
	s.lastActive = time.Now()
}

// AppendUser records user input. The context copy is truncated to MaxUserInputChars characters, the display copy is
// kept as typed
func (s *Session) AppendUser(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendUser(text)
}

func (s *Session) appendUser(text string) {
	s.contextLog = append(s.contextLog, Turn{Role: RoleUser, Content: truncateChars(text, MaxUserInputChars)})
	s.displayLog = append(s.displayLog, Turn{Role: RoleUser, Content: text})
	s.lastActive = time.Now()
}

// AppendAssistant records an assistant reply, successful or not, in both logs
func (s *Session) AppendAssistant(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendAssistant(text)
}

func (s *Session) appendAssistant(text string) {
	turn := Turn{Role: RoleAssistant, Content: text}
	s.contextLog = append(s.contextLog, turn)
	s.displayLog = append(s.displayLog, turn)
	s.lastActive = time.Now()
}

// Reset discards every turn and returns the session to its initial state. Resetting twice is the same as resetting
// once
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAwaitingAgent {
		return ErrBusy
	}
	s.initialize()
	return nil
}

// ContextLog returns a copy of the turns sent to the agent
func (s *Session) ContextLog() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contextLog)
}

// DisplayLog returns a copy of the turns shown to the user
func (s *Session) DisplayLog() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.displayLog)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive returns the time the session was last changed
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Exchange runs one conversational round: the user text is appended, the bridge is called with the full context log,
// and its reply is appended. The bridge call is made without holding the session lock; ErrBusy is returned if another
// exchange is already in flight.
func (s *Session) Exchange(ctx context.Context, text string, bridge Bridge) (string, error) {
	s.mu.Lock()
	if s.state == StateAwaitingAgent {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.appendUser(text)
	s.state = StateAwaitingAgent
	contextLog := slices.Clone(s.contextLog)
	s.mu.Unlock()

	log.Printf("Session %s: calling agent with %d turns", s.id, len(contextLog))
	answer := bridge.Call(ctx, contextLog)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendAssistant(answer)
	s.state = StateIdle
	return answer, nil
}

// truncateChars returns at most n characters (runes) of text
func truncateChars(text string, n int) string {
	if len(text) <= n {
		// Fewer bytes than n means fewer runes than n
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
