package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/pkg/credential"
	"shop-assistant-be/pkg/llm"
)

// Intent labels
const (
	IntentProductInquiry = "product_inquiry"
	IntentRecommendation = "recommendation"
	IntentComparison     = "comparison"
	IntentPurchase       = "purchase"
	IntentSupport        = "support"
	IntentGreeting       = "greeting"
	IntentOther          = "other"
	IntentUndetermined   = "undetermined"
)

// Sentiment labels
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

const CategoryGeneral = "general"

var (
	intents = map[string]bool{
		IntentProductInquiry: true,
		IntentRecommendation: true,
		IntentComparison:     true,
		IntentPurchase:       true,
		IntentSupport:        true,
		IntentGreeting:       true,
		IntentOther:          true,
	}
	sentiments = map[string]bool{
		SentimentPositive: true,
		SentimentNeutral:  true,
		SentimentNegative: true,
	}
	categoryPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9 &_-]{0,49}$`)
	fencePattern    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

type Classification struct {
	Intent    string `json:"intent"`
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
}

// Neutral is returned whenever classification cannot be trusted.
func Neutral() Classification {
	return Classification{Intent: IntentUndetermined, Category: CategoryGeneral, Sentiment: SentimentNeutral}
}

// Generator is the slice of the generation gateway the classifier needs.
type Generator interface {
	GenerateWithTier(ctx context.Context, tier credential.Tier, prompt string, opts ...llm.Option) (string, error)
}

type Classifier struct {
	generator Generator
	tier      credential.Tier
	logger    logger.ILogger
}

func NewClassifier(generator Generator, tier credential.Tier, log logger.ILogger) *Classifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Classifier{generator: generator, tier: tier, logger: log}
}

// Classify labels message. It never fails: any error yields Neutral().
func (c *Classifier) Classify(ctx context.Context, message string) Classification {
	response, err := c.generator.GenerateWithTier(ctx, c.tier, buildPrompt(message),
		llm.WithTemperature(0.0),
		llm.WithMaxTokens(100),
		llm.WithJSONOutput(),
	)
	if err != nil {
		c.logger.Warn("INTENT", "Classification call failed, using neutral defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return Neutral()
	}

	result, err := parse(response)
	if err != nil {
		c.logger.Warn("INTENT", "Classification output unparsable, using neutral defaults", map[string]interface{}{
			"error":    err.Error(),
			"response": truncate(response, 200),
		})
		return Neutral()
	}

	c.logger.Debug("INTENT", "Message classified", map[string]interface{}{
		"intent":    result.Intent,
		"category":  result.Category,
		"sentiment": result.Sentiment,
	})
	return result
}

func buildPrompt(message string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You label messages sent to an online shop's assistant. You do NOT answer them.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<customer_message>\n")
	prompt.WriteString(message)
	prompt.WriteString("\n</customer_message>\n\n")

	prompt.WriteString("<labels>\n")
	prompt.WriteString("intent, one of:\n")
	prompt.WriteString("  product_inquiry: asks about a specific product or its details\n")
	prompt.WriteString("  recommendation: wants suggestions for what to buy\n")
	prompt.WriteString("  comparison: weighs two or more products\n")
	prompt.WriteString("  purchase: ready to buy, asks how to order or pay\n")
	prompt.WriteString("  support: shipping, returns, order problems\n")
	prompt.WriteString("  greeting: small talk with no shopping request\n")
	prompt.WriteString("  other: anything else\n")
	prompt.WriteString("category: the product category the message is about, lowercase, or \"general\"\n")
	prompt.WriteString("sentiment: positive, neutral or negative\n")
	prompt.WriteString("</labels>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"intent\": \"...\", \"category\": \"...\", \"sentiment\": \"...\"}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func parse(response string) (Classification, error) {
	content := strings.TrimSpace(response)
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		content = m[1]
	}
	content = extractJSON(content)
	if content == "" {
		return Classification{}, fmt.Errorf("no JSON found in response")
	}

	var raw Classification
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Classification{}, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	result := Neutral()
	if v := normalize(raw.Intent); intents[v] {
		result.Intent = v
	}
	if v := normalize(raw.Category); categoryPattern.MatchString(v) {
		result.Category = v
	}
	if v := normalize(raw.Sentiment); sentiments[v] {
		result.Sentiment = v
	}
	return result, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
