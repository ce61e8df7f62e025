package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/rahulbar0t/soulsurfer/pkg/models"
)

// Системный промпт для первичной обратной связи тренера
const systemPrompt = `You are SoulSurfer's AI surf coach — a friendly, encouraging, and knowledgeable guide who helps surfers improve through clear, plain-language advice. You are reviewing the results of a video analysis session where computer vision tracked the surfer's body positions and flagged areas that need attention.

IMPORTANT RULES:

1. KEEP IT SIMPLE: Write the way a great coach talks on the beach — warm, direct, easy to understand. Avoid technical jargon, biomechanical terms, or scientific language. Say "bend your knees more" not "increase knee flexion."

2. DO NOT REPEAT NUMBERS: The surfer can see all the detailed measurements, angles, and percentages in a data section below your feedback. Never cite specific degree values, ranges, or statistics. Focus entirely on WHAT to feel, WHY it matters for their surfing, and HOW to fix it.

3. USE BODY-FEEL LANGUAGE: Describe corrections in terms of what the surfer should feel in their body. "You want to feel your weight low and centered, like you're sitting in an invisible chair" is much better than referencing knee angles.

4. PRIORITIZE: Address the most important issues first. Something that happens frequently and has a big impact matters more than a rare, minor issue.

5. GIVE PRACTICAL DRILLS: For each issue, suggest 1-2 simple exercises the surfer can do on the beach, at home, or in the water. Describe them in plain terms.

6. BE ENCOURAGING: Always start with what the surfer is doing well. Frame improvements as opportunities, not failures. End on a motivating note.

7. ADAPT TO SKILL LEVEL: If skill level is provided, adjust your tone:
   - Beginner: Extra encouraging, focus on safety and having fun, simple tips
   - Intermediate: More specific coaching, focus on building consistency
   - Advanced: Nuanced feedback, focus on fine-tuning and flow

Format your response as:

## Quick Take
[1-2 sentences summarizing the session in an encouraging way]

## Nice Work
[What the surfer is doing well — be specific about which body movements look good]

## Things to Work On

### 1. [Issue name in plain language, e.g. "Getting Lower on Your Board"]
- **What's happening:** [plain description of what their body is doing]
- **Why it matters:** [how it affects their surfing — speed, balance, power, style]
- **Try this:** [simple correction to focus on]
- **Practice drill:** [1-2 easy exercises]

### 2. [Next issue]
...

## Your Next Session
[2-3 simple things to focus on next time they paddle out]`

// Системный промпт для последующего чата с тренером
const chatSystemPrompt = `You are SoulSurfer's AI surf coach. You previously analyzed this surfer's video session and provided coaching feedback. Now the surfer is asking you follow-up questions.

Keep the same warm, encouraging, plain-language coaching style. The surfer can see their detailed biomechanical measurements in a separate section, so don't cite specific numbers or ranges. Focus on practical advice, body-feel cues, and simple drills.

Be conversational — answer their specific question directly, then offer a related tip if appropriate. Keep responses focused and not too long.`

const (
	maxFeedbackTokens = 8192
	maxChatTokens     = 4096
)

// Client клиент Gemini для генерации обратной связи тренера
type Client struct {
	genai     *genai.Client
	modelName string
	logger    *logrus.Logger
}

// NewClient создает новый клиент Gemini
func NewClient(ctx context.Context, apiKey, modelName string, logger *logrus.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API ключ не задан")
	}

	sdkClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Gemini клиента: %w", err)
	}

	logger.Infof("Gemini клиент инициализирован с моделью %s", modelName)

	return &Client{
		genai:     sdkClient,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// GenerateFeedback генерирует первичную обратную связь тренера по находкам сессии
func (c *Client) GenerateFeedback(ctx context.Context, findings []models.AggregatedFinding, surferName, skillLevel string) (string, error) {
	model := c.genai.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.SetMaxOutputTokens(maxFeedbackTokens)

	userMessage := formatFindingsForPrompt(findings, surferName, skillLevel)

	resp, err := model.GenerateContent(ctx, genai.Text(userMessage))
	if err != nil {
		return "", fmt.Errorf("ошибка генерации обратной связи: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Chat отвечает на вопрос серфера с учетом контекста сессии и истории чата
func (c *Client) Chat(
	ctx context.Context,
	findings []models.AggregatedFinding,
	coachingFeedback string,
	history []models.ChatTurn,
	message, surferName, skillLevel string,
) (string, error) {
	// Собираем системную инструкцию с контекстом сессии
	var sb strings.Builder
	sb.WriteString(chatSystemPrompt)
	sb.WriteString("\n\n")
	if surferName != "" {
		sb.WriteString(fmt.Sprintf("Surfer: %s\n", surferName))
	}
	if skillLevel != "" {
		sb.WriteString(fmt.Sprintf("Skill Level: %s\n", skillLevel))
	}
	sb.WriteString("\n")
	sb.WriteString("Session analysis summary:\n")
	sb.WriteString(formatFindingsSummary(findings))

	model := c.genai.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(sb.String())},
	}
	model.SetMaxOutputTokens(maxChatTokens)

	chat := model.StartChat()

	// Первый обмен: исходная обратная связь тренера как контекст
	chat.History = []*genai.Content{
		{
			Role:  "user",
			Parts: []genai.Part{genai.Text("Please analyze my surf session.")},
		},
		{
			Role:  "model",
			Parts: []genai.Part{genai.Text(coachingFeedback)},
		},
	}

	// Предыдущая история чата
	for _, turn := range history {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("ошибка чата с тренером: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Close освобождает ресурсы клиента
func (c *Client) Close() error {
	return c.genai.Close()
}

// responseText извлекает текст из ответа Gemini
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("Gemini вернул пустой ответ")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini вернул ответ без содержимого (причина: %s)", candidate.FinishReason.String())
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("Gemini вернул пустой текст")
	}

	// Обрезанный ответ дополняем приглашением продолжить в чате
	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		text += "\n\n---\n*Your coach had more to say! Ask a follow-up question below to continue the conversation.*"
	}

	return text, nil
}

// formatFindingsForPrompt форматирует находки сессии для промпта обратной связи
func formatFindingsForPrompt(findings []models.AggregatedFinding, surferName, skillLevel string) string {
	var lines []string
	if surferName != "" {
		lines = append(lines, fmt.Sprintf("Surfer: %s", surferName))
	}
	if skillLevel != "" {
		lines = append(lines, fmt.Sprintf("Skill Level: %s", skillLevel))
	}
	lines = append(lines, "", "=== DETECTED FORM ERRORS (ranked by priority) ===", "")

	for i, f := range findings {
		lines = append(lines,
			fmt.Sprintf("Error #%d: %s", i+1, f.Metric),
			fmt.Sprintf("  Severity: %s", f.Severity),
			fmt.Sprintf("  Average measured value: %g", f.AvgMeasuredValue),
			fmt.Sprintf("  Ideal range: %g - %g", f.IdealMin, f.IdealMax),
			fmt.Sprintf("  Average deviation from range: %g", f.AvgDeviation),
			fmt.Sprintf("  Max deviation: %g", f.MaxDeviation),
			fmt.Sprintf("  Frequency: %g%% of frames (%d/%d)", f.FrequencyPct, f.FrameCount, f.TotalFramesAnalyzed),
			fmt.Sprintf("  Time span: %gs - %gs (duration: %gs)", f.FirstTimestampSec, f.LastTimestampSec, f.DurationSec),
			"",
		)
	}

	if len(findings) == 0 {
		lines = append(lines, "No significant form errors detected! All metrics within ideal ranges.")
	}

	return strings.Join(lines, "\n")
}

// formatFindingsSummary формирует краткую сводку находок для контекста чата
// (без сырых чисел)
func formatFindingsSummary(findings []models.AggregatedFinding) string {
	if len(findings) == 0 {
		return "No significant form errors were detected in the session."
	}

	var lines []string
	for _, f := range findings {
		name := strings.ReplaceAll(f.Metric, "_", " ")
		lines = append(lines, fmt.Sprintf("- %s (%s severity)", name, f.Severity))
	}
	return "Issues found:\n" + strings.Join(lines, "\n")
}
