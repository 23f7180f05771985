package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// VertexClient backs the chat, report, and insight collaborators with
// Vertex AI (Gemini). It implements domain.ChatClient,
// domain.ReportWriter, and domain.InsightWriter.
type VertexClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexClient creates the client from explicit project settings.
func NewVertexClient(ctx context.Context, projectID, location, modelName string) (*VertexClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("project and location are required for Vertex AI")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateReply implements domain.ChatClient.
func (v *VertexClient) GenerateReply(
	ctx context.Context,
	userMessage string,
	transcript []domain.ChatMessage,
) (string, time.Time, error) {
	var contents []*genai.Content
	for _, msg := range transcript {
		var role genai.Role = genai.RoleUser
		if msg.Sender == domain.SenderPal {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, role))
	}
	// The transcript already ends with the user message being answered;
	// only append when dispatch happened before the append.
	if len(transcript) == 0 || transcript[len(transcript)-1].Text != userMessage {
		contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))
	}

	text, err := v.generate(ctx, chatSystemPrompt, contents, 0.7)
	if err != nil {
		return "", time.Time{}, err
	}
	return text, time.Now(), nil
}

// ComposeReport implements domain.ReportWriter.
func (v *VertexClient) ComposeReport(
	ctx context.Context,
	transcript []domain.ChatMessage,
	quiz domain.QuizAnswers,
) (*domain.Report, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(buildReportUserContent(transcript, quiz), genai.RoleUser),
	}

	text, err := v.generate(ctx, reportSystemPrompt, contents, 0.4)
	if err != nil {
		return nil, err
	}

	var sections domain.NarrativeSections
	if err := json.Unmarshal([]byte(stripFences(text)), &sections); err != nil {
		return nil, fmt.Errorf("parse report sections: %w", err)
	}

	return &domain.Report{Summary: sections}, nil
}

// ComposeInsight implements domain.InsightWriter.
func (v *VertexClient) ComposeInsight(ctx context.Context, entry *domain.JournalEntry) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(buildInsightUserContent(entry), genai.RoleUser),
	}
	return v.generate(ctx, insightSystemPrompt, contents, 0.6)
}

func (v *VertexClient) generate(
	ctx context.Context,
	system string,
	contents []*genai.Content,
	temperature float32,
) (string, error) {
	temp := temperature
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}
	return text, nil
}

// stripFences tolerates models wrapping JSON in markdown code fences.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
