package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/DevanshMishra-12/AI-Agent/internal/chat"
)

// ErrorPrefix starts every reply that reports a failed agent call
const ErrorPrefix = "⚠️ Error while calling agent:"

// Agent produces messages in reply to a conversation
type Agent interface {
	Invoke(ctx context.Context, turns []chat.Turn) ([]chat.Turn, error)
}

// Bridge is the single point where agent failures are recovered. Call blocks until the agent is done and always
// returns text: the agent's final message, or a description of what went wrong
type Bridge struct {
	agent Agent
}

func NewBridge(agent Agent) *Bridge {
	return &Bridge{agent: agent}
}

// Call sends the full context log to the agent and returns the content of its last message
func (b *Bridge) Call(ctx context.Context, contextLog []chat.Turn) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Agent call panicked: %v", r)
			answer = FormatError(fmt.Errorf("panic: %v", r))
		}
	}()

	answer, err := b.invoke(ctx, contextLog)
	if err != nil {
		log.Printf("Agent call failed: %v", err)
		return FormatError(err)
	}
	return answer
}

func (b *Bridge) invoke(ctx context.Context, contextLog []chat.Turn) (string, error) {
	if len(contextLog) == 0 {
		return "", errors.New("context log is empty")
	}
	if contextLog[0].Role != chat.RoleSystem {
		return "", fmt.Errorf("context log must start with a system turn, got %s", contextLog[0].Role)
	}

	produced, err := b.agent.Invoke(ctx, contextLog)
	if err != nil {
		return "", err
	}
	if len(produced) == 0 {
		return "", errors.New("agent produced no messages")
	}
	return produced[len(produced)-1].Content, nil
}

// FormatError renders an agent failure as a user-visible assistant message
func FormatError(err error) string {
	return fmt.Sprintf("%s `%v`", ErrorPrefix, err)
}
