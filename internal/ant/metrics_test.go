package ant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"antfarm/internal/domain"
)

func TestTickCollectorAggregates(t *testing.T) {
	_, c := WithTick(context.Background(), "ant-1")

	c.Record(Event{Operation: "GenerateMessage", Model: domain.ModelMock, Success: false, ErrorClass: "TransientError", EstimatedUSD: 0.01})
	c.Record(Event{Operation: "GenerateMessage", Model: domain.ModelMock, Success: true, EstimatedUSD: 0.02})

	s := c.Summary()
	require.Equal(t, "ant-1", s.AntID)
	require.Equal(t, 2, s.Requests)
	require.Equal(t, 1, s.Successes)
	require.Equal(t, 1, s.Failures)
	require.InDelta(t, 0.03, s.EstimatedUSD, 1e-9)
	require.Len(t, s.Events, 2)
}

func TestTickCollectorNilSafe(t *testing.T) {
	c := TickFromContext(context.Background())
	require.Nil(t, c)
	c.Record(Event{Operation: "GenerateMessage", Success: true})
	require.Equal(t, TickSummary{}, c.Summary())
}

func TestTickCollectorScopedPerContext(t *testing.T) {
	ctx1, c1 := WithTick(context.Background(), "ant-1")
	_, c2 := WithTick(context.Background(), "ant-2")

	TickFromContext(ctx1).Record(Event{Operation: "GenerateMessage", Success: true})

	require.Equal(t, 1, c1.Summary().Requests)
	require.Equal(t, 0, c2.Summary().Requests)
}

func TestPriceTableEstimateCost(t *testing.T) {
	table := PriceTable{
		domain.ModelOpenAIGPT4oMini: {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	}

	got := table.EstimateCost(domain.ModelOpenAIGPT4oMini, 1_000_000, 500_000)
	require.InDelta(t, 0.15+0.30, got, 1e-9)

	require.Zero(t, table.EstimateCost(domain.ModelOllama, 1000, 1000))
}
