package intent

import (
	"context"
	"errors"
	"testing"

	"shop-assistant-be/pkg/credential"
	"shop-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response string
	err      error
	tier     credential.Tier
	prompt   string
	options  *llm.Options
}

func (f *fakeGenerator) GenerateWithTier(ctx context.Context, tier credential.Tier, prompt string, opts ...llm.Option) (string, error) {
	f.tier = tier
	f.prompt = prompt
	f.options = llm.ApplyOptions(0.7, opts...)
	return f.response, f.err
}

func TestClassify_ParsesLabels(t *testing.T) {
	gen := &fakeGenerator{response: `{"intent":"Purchase","category":"Shoes","sentiment":"POSITIVE"}`}
	c := NewClassifier(gen, credential.TierEmbedding, nil)

	got := c.Classify(context.Background(), "I'll take the trail runners, how do I pay?")

	assert.Equal(t, Classification{Intent: IntentPurchase, Category: "shoes", Sentiment: SentimentPositive}, got)
	assert.Equal(t, credential.TierEmbedding, gen.tier)
	assert.Contains(t, gen.prompt, "I'll take the trail runners")
	require.NotNil(t, gen.options)
	assert.True(t, gen.options.JSONOutput)
	assert.Equal(t, 0.0, gen.options.Temperature)
}

func TestClassify_StripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n{\"intent\":\"comparison\",\"category\":\"laptops\",\"sentiment\":\"neutral\"}\n```"}
	c := NewClassifier(gen, credential.TierEmbedding, nil)

	got := c.Classify(context.Background(), "x1 or x2?")
	assert.Equal(t, IntentComparison, got.Intent)
	assert.Equal(t, "laptops", got.Category)
}

func TestClassify_UnknownLabelsFallBackPerField(t *testing.T) {
	gen := &fakeGenerator{response: `{"intent":"haggling","category":"<script>","sentiment":"furious"}`}
	c := NewClassifier(gen, credential.TierEmbedding, nil)

	assert.Equal(t, Neutral(), c.Classify(context.Background(), "cheaper?"))
}

func TestClassify_FailuresReturnNeutral(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "network error", gen: &fakeGenerator{err: errors.New("dial tcp: connection refused")}},
		{name: "malformed json", gen: &fakeGenerator{response: `{"intent": "purchase",`}},
		{name: "prose", gen: &fakeGenerator{response: "The customer wants to buy."}},
		{name: "empty", gen: &fakeGenerator{response: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.gen, credential.TierEmbedding, nil)
			got := c.Classify(context.Background(), "hello")
			assert.Equal(t, Classification{Intent: "undetermined", Category: "general", Sentiment: "neutral"}, got)
		})
	}
}
