package prompt

import (
	"fmt"
	"strings"

	"shop-assistant-be/internal/entity"
	"shop-assistant-be/pkg/llm"
	"shop-assistant-be/pkg/rag/intent"
)

const noMatchNote = "No specific products matched this message. Answer from general shop knowledge, do not invent products, and invite the customer to describe what they need."

var guidance = map[string]string{
	intent.IntentProductInquiry: "The customer is asking about a product. Answer precisely from the catalog context and mention the product link.",
	intent.IntentRecommendation: "The customer wants suggestions. Recommend at most three catalog items and say briefly why each fits.",
	intent.IntentComparison:     "The customer is comparing products. Contrast them on price and key points and end with a short verdict.",
	intent.IntentPurchase:       "The customer is ready to buy. Confirm the product, give its price and link, and keep the answer short.",
	intent.IntentSupport:        "The customer needs help with an order or policy. Be empathetic and point to the relevant shop policy.",
	intent.IntentGreeting:       "The customer is greeting you. Reply warmly in one or two sentences and offer help.",
}

const defaultGuidance = "Work out what the customer needs and answer helpfully using the catalog context where it applies."

// ContextualBuilder assembles the generation prompt for one chat turn.
type ContextualBuilder struct {
	message        string
	items          []entity.RetrievedItem
	classification intent.Classification
	history        []llm.Message
	storeURL       string
}

// NewContextualBuilder creates a builder for message. history must already be
// trimmed to the turns that should appear in the prompt.
func NewContextualBuilder(message string, items []entity.RetrievedItem, classification intent.Classification, history []llm.Message) *ContextualBuilder {
	return &ContextualBuilder{
		message:        message,
		items:          items,
		classification: classification,
		history:        history,
	}
}

// WithStoreURL sets the base used for product links. Links are relative when unset.
func (b *ContextualBuilder) WithStoreURL(url string) *ContextualBuilder {
	b.storeURL = strings.TrimRight(url, "/")
	return b
}

func (b *ContextualBuilder) Build() string {
	var prompt strings.Builder

	b.writePolicy(&prompt)
	b.writeCatalogContext(&prompt)
	b.writeGuidance(&prompt)
	b.writeConversation(&prompt)
	b.writeCustomerMessage(&prompt)

	return prompt.String()
}

func (b *ContextualBuilder) writePolicy(prompt *strings.Builder) {
	prompt.WriteString("<policy>\n")
	prompt.WriteString("You are the shop's sales assistant. Help customers find and buy the right products.\n")
	prompt.WriteString("Rules:\n")
	prompt.WriteString("1. Only recommend products that appear in <catalog_context>\n")
	prompt.WriteString("2. Quote prices exactly as listed, never estimate or discount them\n")
	prompt.WriteString("3. When you mention a product, include its link\n")
	prompt.WriteString("4. If you do not know something, say so and offer to help another way\n")
	prompt.WriteString("5. Reply in the customer's language, in a friendly and concise tone\n")
	prompt.WriteString("</policy>\n\n")
}

func (b *ContextualBuilder) writeCatalogContext(prompt *strings.Builder) {
	prompt.WriteString("<catalog_context>\n")
	if len(b.items) == 0 {
		prompt.WriteString(noMatchNote)
		prompt.WriteString("\n</catalog_context>\n\n")
		return
	}

	for i, item := range b.items {
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, item.Name))
		prompt.WriteString(fmt.Sprintf("   Price: %.2f\n", item.Price))
		prompt.WriteString(fmt.Sprintf("   Category: %s\n", item.Category))
		if item.Description != "" {
			prompt.WriteString(fmt.Sprintf("   Description: %s\n", item.Description))
		}
		if len(item.KeyPoints) > 0 {
			prompt.WriteString(fmt.Sprintf("   Key points: %s\n", strings.Join(item.KeyPoints, "; ")))
		}
		prompt.WriteString(fmt.Sprintf("   Link: %s/products/%s\n", b.storeURL, item.Slug))
	}
	prompt.WriteString("</catalog_context>\n\n")
}

func (b *ContextualBuilder) writeGuidance(prompt *strings.Builder) {
	text, ok := guidance[b.classification.Intent]
	if !ok {
		text = defaultGuidance
	}

	prompt.WriteString("<guidance>\n")
	prompt.WriteString(text)
	prompt.WriteString("\n")
	if b.classification.Sentiment == intent.SentimentNegative {
		prompt.WriteString("The customer sounds unhappy. Acknowledge it before anything else.\n")
	}
	prompt.WriteString("</guidance>\n\n")
}

func (b *ContextualBuilder) writeConversation(prompt *strings.Builder) {
	if len(b.history) == 0 {
		return
	}

	prompt.WriteString("<conversation>\n")
	for _, msg := range b.history {
		role := "Customer"
		if msg.Role == entity.MessageRoleAssistant {
			role = "Assistant"
		}
		prompt.WriteString(fmt.Sprintf("%s: %s\n", role, msg.Content))
	}
	prompt.WriteString("</conversation>\n\n")
}

func (b *ContextualBuilder) writeCustomerMessage(prompt *strings.Builder) {
	prompt.WriteString("<customer_message>\n")
	prompt.WriteString(b.message)
	prompt.WriteString("\n</customer_message>\n\n")
	prompt.WriteString("Now reply to the customer:")
}
