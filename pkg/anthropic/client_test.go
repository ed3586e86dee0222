package anthropic

import (
	"context"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const auditorPrompt = "You are an expert ESG auditor. Extract the SEBI BRSR Principle 6 disclosures."

type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func extractionRequest() MessageRequest {
	temp := 0.0
	return MessageRequest{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   4096,
		System:      BuildCachedSystemBlocks(auditorPrompt),
		Messages:    []Message{{Role: "user", Content: "Company: Acme Steel\n\n[Page 42]\nScope 1 emissions 1,200 tCO2e"}},
		Temperature: &temp,
	}
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks(auditorPrompt)

	require.Len(t, blocks, 1)
	assert.Equal(t, auditorPrompt, blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestNewParams_ExtractionRequest(t *testing.T) {
	params := newParams(extractionRequest())

	assert.Equal(t, sdk.Model("claude-sonnet-4-5-20250929"), params.Model)
	assert.Equal(t, int64(4096), params.MaxTokens)
	require.True(t, params.Temperature.Valid())
	assert.Equal(t, 0.0, params.Temperature.Value)

	require.Len(t, params.System, 1)
	assert.Equal(t, auditorPrompt, params.System[0].Text)
	assert.Equal(t, sdk.CacheControlEphemeralTTL("1h"), params.System[0].CacheControl.TTL)

	require.Len(t, params.Messages, 1)
	assert.Equal(t, sdk.MessageParamRoleUser, params.Messages[0].Role)
}

func TestNewParams_Defaults(t *testing.T) {
	params := newParams(MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 1024,
		System:    []SystemBlock{{Text: "plain"}},
		Messages: []Message{
			{Role: "user", Content: "page text"},
			{Role: "assistant", Content: "{"},
		},
	})

	assert.False(t, params.Temperature.Valid())
	require.Len(t, params.System, 1)
	assert.Empty(t, params.System[0].CacheControl.TTL)
	require.Len(t, params.Messages, 2)
	assert.Equal(t, sdk.MessageParamRoleAssistant, params.Messages[1].Role)
}

func TestFromSDKMessage(t *testing.T) {
	resp := fromSDKMessage(&sdk.Message{
		Model:      "claude-sonnet-4-5-20250929",
		StopReason: "max_tokens",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "```json"},
			{Type: "text", Text: `{"emissions":{}}`},
		},
		Usage: sdk.Usage{InputTokens: 1800, OutputTokens: 240, CacheCreationInputTokens: 2000, CacheReadInputTokens: 900},
	})

	assert.Equal(t, "max_tokens", resp.StopReason)
	assert.Equal(t, "```json\n{\"emissions\":{}}", resp.Text())
	assert.Equal(t, TokenUsage{InputTokens: 1800, OutputTokens: 240, CacheCreationInputTokens: 2000, CacheReadInputTokens: 900}, resp.Usage)
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "first"},
		{Type: "tool_use"},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, "first\nsecond", resp.Text())

	var nilResp *MessageResponse
	assert.Equal(t, "", nilResp.Text())
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name  string
		model string
		usage TokenUsage
		want  float64
	}{
		{"sonnet", "claude-sonnet-4-5-20250929", TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}, 18.00},
		{"haiku", "claude-haiku-4-5-20251001", TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}, 6.00},
		// 0.5M + 1.25*0.2M + 0.1*0.3M = 0.78M input at $3, 0.1M output at $15.
		{"prompt cache", "claude-sonnet-4-5-20250929", TokenUsage{
			InputTokens: 500_000, OutputTokens: 100_000,
			CacheCreationInputTokens: 200_000, CacheReadInputTokens: 300_000,
		}, 3.84},
		{"unknown model", "gpt-4o", TokenUsage{InputTokens: 1_000_000}, 0},
		{"zero usage", "claude-sonnet-4-5-20250929", TokenUsage{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.usage.EstimateCost(tt.model), 1e-6)
		})
	}
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		TokenUsage{InputTokens: 2000, OutputTokens: 400}.LogCost("claude-sonnet-4-5-20250929", "extract")
		TokenUsage{}.LogCost("unknown-model", "")
	})
}

func TestNewRateLimitedClient_DisabledReturnsInner(t *testing.T) {
	mc := new(MockClient)
	assert.Same(t, mc, NewRateLimitedClient(mc, 0))
	assert.Same(t, mc, NewRateLimitedClient(mc, -5))
}

func TestRateLimitedClient_ForwardsRequest(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()
	req := extractionRequest()
	want := &MessageResponse{
		Content: []ContentBlock{{Type: "text", Text: "{}"}},
		Usage:   TokenUsage{InputTokens: 10, OutputTokens: 5},
	}
	mc.On("CreateMessage", ctx, req).Return(want, nil)

	resp, err := NewRateLimitedClient(mc, 60).CreateMessage(ctx, req)
	require.NoError(t, err)
	assert.Same(t, want, resp)
	mc.AssertExpectations(t)
}

func TestRateLimitedClient_CanceledContext(t *testing.T) {
	mc := new(MockClient)
	client := NewRateLimitedClient(mc, 1)

	// The first call consumes the single burst token.
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&MessageResponse{}, nil).Once()
	_, err := client.CreateMessage(context.Background(), extractionRequest())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.CreateMessage(ctx, extractionRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	mc.AssertNumberOfCalls(t, "CreateMessage", 1)
}
