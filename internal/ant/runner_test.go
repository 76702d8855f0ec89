package ant

import (
	"context"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"antfarm/internal/domain"
	"antfarm/internal/errors"
	"antfarm/internal/logging"
)

func TestRegistryFallsBackToMock(t *testing.T) {
	r := NewRegistry()

	require.Equal(t, domain.ModelMock, r.Runner("").Model())
	require.Equal(t, domain.ModelMock, r.Runner("no-such-model").Model())
	require.Equal(t, domain.ModelMock, r.Runner(domain.ModelMock).Model())
}

func TestMockRunnerOutputs(t *testing.T) {
	ctx := context.Background()
	a := domain.Ant{ID: "ant-1", Name: "scout", Model: domain.ModelMock}
	m := NewMockRunner()

	msg, err := m.GenerateMessage(ctx, a, "room-1", &ModelContext{})
	require.NoError(t, err)
	require.Contains(t, msg, "scout")

	sum, err := m.GenerateSummary(ctx, a, "room-1", &ModelContext{}, "")
	require.NoError(t, err)
	require.NotEmpty(t, sum)

	raw, err := m.GenerateThought(ctx, a, "room-1", &ModelContext{})
	require.NoError(t, err)
	parsed, ok := ParseThought(raw)
	require.True(t, ok)
	require.Equal(t, 50, parsed.StalenessScore)
}

// fakeChatModel scripts a sequence of Generate outcomes.
type fakeChatModel struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	content string
	err     error
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	r := f.responses[f.calls]
	f.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &schema.Message{Role: schema.Assistant, Content: r.content}, nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	panic("not used")
}

func (f *fakeChatModel) WithTools(_ []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func newTestEinoRunner(chat einomodel.ToolCallingChatModel) *EinoRunner {
	return &EinoRunner{
		id:   domain.ModelOpenAIGPT4oMini,
		chat: chat,
		cfg:  ProviderConfig{Provider: ProviderOpenAI, ModelName: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 512},
		retry: errors.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    2 * time.Millisecond,
		},
		prices: PriceTable{},
		logger: logging.Nop(),
	}
}

func TestEinoRunnerBlankThenSuccess(t *testing.T) {
	fake := &fakeChatModel{responses: []fakeResponse{
		{content: ""},
		{content: "   "},
		{content: "third time lucky"},
	}}
	runner := newTestEinoRunner(fake)

	ctx, collector := WithTick(context.Background(), "ant-1")
	a := domain.Ant{ID: "ant-1", Name: "scout", Model: domain.ModelOpenAIGPT4oMini}

	got, err := runner.GenerateMessage(ctx, a, "room-1", &ModelContext{})
	require.NoError(t, err)
	require.Equal(t, "third time lucky", got)
	require.Equal(t, 3, fake.calls)

	s := collector.Summary()
	require.Equal(t, 2, s.Failures)
	require.Equal(t, 1, s.Successes)
	require.Equal(t, 2, s.Events[2].Attempt)
}

func TestEinoRunnerAuthErrorSingleAttempt(t *testing.T) {
	fake := &fakeChatModel{responses: []fakeResponse{
		{err: errors.NewAuth(nil, "401 Unauthorized")},
	}}
	runner := newTestEinoRunner(fake)

	ctx, collector := WithTick(context.Background(), "ant-1")
	a := domain.Ant{ID: "ant-1", Name: "scout", Model: domain.ModelOpenAIGPT4oMini}

	_, err := runner.GenerateMessage(ctx, a, "room-1", &ModelContext{})
	require.Error(t, err)
	require.True(t, errors.IsAuth(err))
	require.Equal(t, 1, fake.calls)

	s := collector.Summary()
	require.Equal(t, 1, s.Failures)
	require.Equal(t, 0, s.Successes)
	require.Equal(t, "AuthError", s.Events[0].ErrorClass)
}

func TestEinoRunnerExhaustsRetryBudget(t *testing.T) {
	fake := &fakeChatModel{responses: []fakeResponse{
		{err: errors.NewTransient(nil, "rate limit exceeded")},
		{err: errors.NewTransient(nil, "rate limit exceeded")},
		{err: errors.NewTransient(nil, "rate limit exceeded")},
	}}
	runner := newTestEinoRunner(fake)

	ctx, collector := WithTick(context.Background(), "ant-1")
	a := domain.Ant{ID: "ant-1", Name: "scout", Model: domain.ModelOpenAIGPT4oMini}

	_, err := runner.GenerateMessage(ctx, a, "room-1", &ModelContext{})
	require.Error(t, err)
	require.Equal(t, 3, fake.calls)
	require.Equal(t, 3, collector.Summary().Failures)
}
