package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DevanshMishra-12/AI-Agent/internal/ai"
)

type MockCaller struct {
	mock.Mock
}

func (m *MockCaller) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	ret := m.Called(ctx, name, args)
	return ret.String(0), ret.Error(1)
}

var testSpecs = []ai.ToolSpec{
	{Name: "firecrawl_scrape", Description: "Scrape a page"},
	{Name: "firecrawl_crawl", Description: "Crawl a site"},
}

func TestToolRegistry_GetToolSpecsKeepsOrder(t *testing.T) {
	registry := NewToolRegistry(append(testSpecs, ai.ToolSpec{Name: "firecrawl_scrape", Description: "updated"}), &MockCaller{})

	specs := registry.GetToolSpecs()

	require.Len(t, specs, 2)
	assert.Equal(t, "firecrawl_scrape", specs[0].Name)
	assert.Equal(t, "updated", specs[0].Description)
	assert.Equal(t, "firecrawl_crawl", specs[1].Name)

	_, ok := registry.GetTool("firecrawl_crawl")
	assert.True(t, ok)
	_, ok = registry.GetTool("missing")
	assert.False(t, ok)
}

func TestToolRegistry_ProcessToolUse_Success(t *testing.T) {
	caller := &MockCaller{}
	args := json.RawMessage(`{"url":"https://example.com"}`)
	caller.On("CallTool", mock.Anything, "firecrawl_scrape", args).Return("Example Domain", nil).Once()
	registry := NewToolRegistry(testSpecs, caller)

	result, err := registry.ProcessToolUse(context.Background(), ai.ToolCall{ID: "c1", Name: "firecrawl_scrape", Arguments: args})

	require.NoError(t, err)
	assert.Equal(t, ai.ToolResult{CallID: "c1", Name: "firecrawl_scrape", Content: "Example Domain"}, result)
	caller.AssertExpectations(t)
}

func TestToolRegistry_ProcessToolUse_UnknownTool(t *testing.T) {
	caller := &MockCaller{}
	registry := NewToolRegistry(testSpecs, caller)

	result, err := registry.ProcessToolUse(context.Background(), ai.ToolCall{ID: "c1", Name: "rm_rf"})

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "unknown tool: rm_rf", result.Content)
	caller.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything)
}

func TestToolRegistry_ProcessToolUse_ToolInputError(t *testing.T) {
	caller := &MockCaller{}
	caller.On("CallTool", mock.Anything, "firecrawl_crawl", mock.Anything).
		Return("", NewToolInputError(errors.New("invalid url"))).Once()
	registry := NewToolRegistry(testSpecs, caller)

	result, err := registry.ProcessToolUse(context.Background(), ai.ToolCall{ID: "c2", Name: "firecrawl_crawl"})

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "c2", result.CallID)
	assert.Equal(t, "tool input error: invalid url", result.Content)
}

func TestToolRegistry_ProcessToolUse_FatalError(t *testing.T) {
	caller := &MockCaller{}
	caller.On("CallTool", mock.Anything, "firecrawl_crawl", mock.Anything).
		Return("", errors.New("broken pipe")).Once()
	registry := NewToolRegistry(testSpecs, caller)

	_, err := registry.ProcessToolUse(context.Background(), ai.ToolCall{ID: "c2", Name: "firecrawl_crawl"})

	require.ErrorContains(t, err, "broken pipe")
}

func TestToolInputError_Unwrap(t *testing.T) {
	cause := errors.New("bad")
	err := NewToolInputError(cause)

	assert.ErrorIs(t, err, cause)
}
