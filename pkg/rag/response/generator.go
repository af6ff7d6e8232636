package response

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ai-procedure-assistant-be/pkg/llm"
	"ai-procedure-assistant-be/pkg/rag"
	ragcontext "ai-procedure-assistant-be/pkg/rag/context"
)

// Generator creates answers grounded in the expanded context
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

// NewGenerator creates a new response generator
func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Answer carries the generated text plus the documents it cites.
type Answer struct {
	Text      string
	Strategy  ragcontext.Strategy
	Citations []string
}

// Generate produces an answer from the expanded context. A deadline hit
// maps to ErrGenerationTimeout; other provider errors degrade to a
// fixed apology so the turn still resolves.
func (g *Generator) Generate(
	ctx context.Context,
	query string,
	collectionName string,
	expansion *ragcontext.Expansion,
) (*Answer, error) {

	if expansion == nil || expansion.Text == "" {
		g.logger.Printf("[GENERATION] No context to ground on")
		return &Answer{Text: MessageNoContext}, nil
	}

	promptText := g.buildGroundedPrompt(query, collectionName, expansion)
	history := []llm.Message{{Role: "user", Content: promptText}}

	text, err := g.llmProvider.Chat(ctx, history)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			g.logger.Printf("[ERROR] LLM generation timed out: %v", err)
			return nil, fmt.Errorf("llm chat: %w", rag.ErrGenerationTimeout)
		}
		g.logger.Printf("[ERROR] LLM generation failed: %v", err)
		return &Answer{
			Text:      MessageGenerationFailed,
			Strategy:  expansion.Strategy,
			Citations: expansion.FilesIncluded,
		}, nil
	}

	g.logger.Printf("[GENERATION] Answer generated from %d chunks (strategy: %s)",
		expansion.ChunksIncluded, expansion.Strategy)

	return &Answer{
		Text:      text,
		Strategy:  expansion.Strategy,
		Citations: expansion.FilesIncluded,
	}, nil
}

func (g *Generator) buildGroundedPrompt(query, collectionName string, expansion *ragcontext.Expansion) string {
	var prompt strings.Builder

	prompt.WriteString("<grounded_reference_material>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n")
	prompt.WriteString("Structure: sections are separated by '--- filename ---' headers. Treat them as distinct sources.\n\n")
	prompt.WriteString(expansion.Text)
	prompt.WriteString("\n</grounded_reference_material>\n\n")

	prompt.WriteString("<task_instructions>\n")
	prompt.WriteString("Bạn là trợ lý hướng dẫn thủ tục hành chính công của Việt Nam.\n")
	if collectionName != "" {
		prompt.WriteString(fmt.Sprintf("Lĩnh vực đang tra cứu: %s.\n", collectionName))
	}
	prompt.WriteString("\n")
	prompt.WriteString("QUY TẮC BẮT BUỘC:\n")
	prompt.WriteString("1. Chỉ trả lời dựa trên nội dung trong <grounded_reference_material>.\n")
	prompt.WriteString("2. Trả lời trực tiếp, đầy đủ các bước, giấy tờ, lệ phí và thời hạn nếu tài liệu có nêu.\n")
	prompt.WriteString("3. Nếu tài liệu không đủ thông tin, nói rõ phần nào còn thiếu, không suy đoán.\n")
	prompt.WriteString("4. Trình bày bằng tiếng Việt, dùng danh sách đánh số cho các bước thực hiện.\n")
	prompt.WriteString("</task_instructions>\n\n")

	prompt.WriteString("<user_question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_question>\n\n")

	prompt.WriteString("Answer:")

	return prompt.String()
}
