package chat

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBridge returns a fixed answer and records the context logs it was called with
type stubBridge struct {
	answer string
	calls  [][]Turn
}

func (sb *stubBridge) Call(ctx context.Context, contextLog []Turn) string {
	sb.calls = append(sb.calls, contextLog)
	return sb.answer
}

// blockingBridge waits for release before answering, so tests can observe the AwaitingAgent state
type blockingBridge struct {
	started chan struct{}
	release chan struct{}
}

func (bb *blockingBridge) Call(ctx context.Context, contextLog []Turn) string {
	close(bb.started)
	<-bb.release
	return "done"
}

func systemTurn() Turn {
	return Turn{Role: RoleSystem, Content: SystemPrompt}
}

func TestNewSession_Initialized(t *testing.T) {
	s := NewSession("abc")

	assert.Equal(t, "abc", s.ID())
	assert.Equal(t, []Turn{systemTurn()}, s.ContextLog())
	assert.Len(t, s.DisplayLog(), 0)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_TurnPairsKeepLogsInLockstep(t *testing.T) {
	s := NewSession("abc")

	for n := 1; n <= 5; n++ {
		s.AppendUser("question")
		s.AppendAssistant("answer")

		require.Len(t, s.ContextLog(), 1+2*n)
		require.Len(t, s.DisplayLog(), 2*n)
	}
}

func TestSession_DisplayLogNeverContainsSystemTurn(t *testing.T) {
	s := NewSession("abc")
	s.AppendUser("hello")
	s.AppendAssistant("hi")

	for _, turn := range s.DisplayLog() {
		assert.NotEqual(t, RoleSystem, turn.Role)
	}
	assert.Equal(t, RoleSystem, s.ContextLog()[0].Role)
}

func TestSession_AppendUser_ShortInputUnchanged(t *testing.T) {
	s := NewSession("abc")
	text := strings.Repeat("a", MaxUserInputChars)

	s.AppendUser(text)

	assert.Equal(t, text, s.ContextLog()[1].Content)
	assert.Equal(t, text, s.DisplayLog()[0].Content)
}

func TestSession_AppendUser_LongInputTruncatedInContextOnly(t *testing.T) {
	s := NewSession("abc")
	text := strings.Repeat("x", 200000)

	s.AppendUser(text)

	assert.Len(t, s.ContextLog()[1].Content, 175000)
	assert.Len(t, s.DisplayLog()[0].Content, 200000)
}

func TestSession_AppendUser_TruncatesCharactersNotBytes(t *testing.T) {
	s := NewSession("abc")
	text := strings.Repeat("é", MaxUserInputChars+10)

	s.AppendUser(text)

	stored := s.ContextLog()[1].Content
	assert.Equal(t, MaxUserInputChars, len([]rune(stored)))
	assert.True(t, strings.HasPrefix(text, stored))
}

func TestSession_AppendAssistant_NotTruncated(t *testing.T) {
	s := NewSession("abc")
	text := strings.Repeat("y", 200000)

	s.AppendUser("q")
	s.AppendAssistant(text)

	assert.Len(t, s.ContextLog()[2].Content, 200000)
	assert.Len(t, s.DisplayLog()[1].Content, 200000)
}

func TestSession_Reset(t *testing.T) {
	s := NewSession("abc")
	for i := 0; i < 3; i++ {
		s.AppendUser("q")
		s.AppendAssistant("a")
	}

	require.NoError(t, s.Reset())

	assert.Equal(t, []Turn{systemTurn()}, s.ContextLog())
	assert.Equal(t, []Turn{}, s.DisplayLog())
}

func TestSession_ResetIsIdempotent(t *testing.T) {
	once := NewSession("abc")
	once.AppendUser("q")
	require.NoError(t, once.Reset())

	twice := NewSession("abc")
	twice.AppendUser("q")
	require.NoError(t, twice.Reset())
	require.NoError(t, twice.Reset())

	assert.Equal(t, once.ContextLog(), twice.ContextLog())
	assert.Equal(t, once.DisplayLog(), twice.DisplayLog())
}

func TestSession_LogsAreCopies(t *testing.T) {
	s := NewSession("abc")
	s.AppendUser("q")

	contextLog := s.ContextLog()
	contextLog[1].Content = "changed"
	displayLog := s.DisplayLog()
	displayLog[0].Content = "changed"

	assert.Equal(t, "q", s.ContextLog()[1].Content)
	assert.Equal(t, "q", s.DisplayLog()[0].Content)
}

func TestSession_Exchange(t *testing.T) {
	s := NewSession("abc")
	bridge := &stubBridge{answer: "Example Domain summary."}

	answer, err := s.Exchange(context.Background(), "Scrape https://example.com", bridge)

	require.NoError(t, err)
	assert.Equal(t, "Example Domain summary.", answer)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Content: "Scrape https://example.com"},
		{Role: RoleAssistant, Content: "Example Domain summary."},
	}, s.DisplayLog())
	assert.Equal(t, StateIdle, s.State())

	// The bridge sees the full context log, including the new user turn
	require.Len(t, bridge.calls, 1)
	assert.Equal(t, []Turn{
		systemTurn(),
		{Role: RoleUser, Content: "Scrape https://example.com"},
	}, bridge.calls[0])
}

func TestSession_Exchange_ErrorTextIsAnOrdinaryTurn(t *testing.T) {
	s := NewSession("abc")
	bridge := &stubBridge{answer: "⚠️ Error while calling agent: `boom`"}

	_, err := s.Exchange(context.Background(), "hi", bridge)

	require.NoError(t, err)
	assert.Equal(t, bridge.answer, s.DisplayLog()[1].Content)
	assert.Equal(t, bridge.answer, s.ContextLog()[2].Content)
}

func TestSession_Exchange_SendsTruncatedContext(t *testing.T) {
	s := NewSession("abc")
	bridge := &stubBridge{answer: "ok"}

	_, err := s.Exchange(context.Background(), strings.Repeat("z", 200000), bridge)

	require.NoError(t, err)
	require.Len(t, bridge.calls, 1)
	assert.Len(t, bridge.calls[0][1].Content, MaxUserInputChars)
	assert.Len(t, s.DisplayLog()[0].Content, 200000)
}

func TestSession_Exchange_BusyWhileAwaitingAgent(t *testing.T) {
	s := NewSession("abc")
	bridge := &blockingBridge{started: make(chan struct{}), release: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Exchange(context.Background(), "first", bridge)
		assert.NoError(t, err)
	}()
	<-bridge.started

	assert.Equal(t, StateAwaitingAgent, s.State())

	_, err := s.Exchange(context.Background(), "second", &stubBridge{answer: "x"})
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.Reset(), ErrBusy)

	close(bridge.release)
	wg.Wait()

	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, []Turn{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "done"},
	}, s.DisplayLog())
}

func TestTruncateChars(t *testing.T) {
	assert.Equal(t, "", truncateChars("", 3))
	assert.Equal(t, "abc", truncateChars("abc", 3))
	assert.Equal(t, "ab", truncateChars("abc", 2))
	assert.Equal(t, "日本", truncateChars("日本語", 2))
	assert.Equal(t, "日本語", truncateChars("日本語", 3))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting_agent", StateAwaitingAgent.String())
}
