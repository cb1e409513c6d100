package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/accordhq/accord/internal/engine"
	"github.com/accordhq/accord/pkg/formatting"
)

// Completer generates a completion for a prompt. Implementations must be
// safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient is a Completer backed by an OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client for the given key and model. A non-empty
// baseURL points the client at a compatible alternative endpoint.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// maxPromptText bounds the pooled document text included in a prompt.
const maxPromptText = 24000

const rulePrompt = `You are reviewing the documents of a single commercial agreement.
Extract the billing and payment rules an invoice reviewer must enforce.

Respond with a JSON array only. Each element:
{"category": "billing|payment|rates|term", "text": "<the rule>", "source": "<document filename>"}

Documents:
%s`

// Extractor produces per-contract rules for resolved agreement groups. With
// a nil completer it still builds the hierarchy and inconsistency findings
// and leaves the rule list empty.
type Extractor struct {
	completer Completer
	logger    *slog.Logger
}

func NewExtractor(completer Completer, logger *slog.Logger) *Extractor {
	return &Extractor{
		completer: completer,
		logger:    logger.With("system", "rules"),
	}
}

// Extract builds the rule set for one agreement group from its member
// document records.
func (e *Extractor) Extract(ctx context.Context, group engine.AgreementGroup, docs []*engine.DocumentRecord) (ContractRules, error) {
	hierarchy := BuildHierarchy(docs)

	result := ContractRules{
		ContractID:      group.GroupKey,
		Parties:         group.Parties,
		ProgramCodes:    group.ProgramCodes,
		SourceDocuments: documentNames(docs),
		ExtractedAt:     time.Now().UTC(),
		Inconsistencies: VerifyHierarchy(hierarchy),
		Hierarchy:       hierarchy,
	}

	if e.completer == nil {
		return result, nil
	}

	response, err := e.completer.Complete(ctx, fmt.Sprintf(rulePrompt, pooledText(docs)))
	if err != nil {
		return result, fmt.Errorf("extract rules for %s: %w", group.GroupKey, err)
	}

	extracted, err := formatting.Parse[[]Rule](response)
	if err != nil {
		return result, fmt.Errorf("extract rules for %s: %w", group.GroupKey, err)
	}
	result.Rules = extracted

	e.logger.InfoContext(ctx, "rules extracted",
		"contract", group.GroupKey,
		"rules", len(extracted),
		"inconsistencies", len(result.Inconsistencies),
	)
	return result, nil
}

func documentNames(docs []*engine.DocumentRecord) []string {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Filename
	}
	return names
}

func pooledText(docs []*engine.DocumentRecord) string {
	var sb strings.Builder
	for _, doc := range docs {
		if sb.Len() >= maxPromptText {
			break
		}
		sb.WriteString("--- ")
		sb.WriteString(doc.Filename)
		sb.WriteString(" ---\n")
		sb.WriteString(doc.RawText)
		sb.WriteString("\n\n")
	}
	text := sb.String()
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}
	return text
}
