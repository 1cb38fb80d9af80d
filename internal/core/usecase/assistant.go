package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chaiyut/docintake/internal/core/domain"
	"github.com/chaiyut/docintake/internal/core/ports"
)

const assistantContextFiles = 100

// AssistantUseCase answers operator questions about the stored corpus.
// Known intents are answered from live aggregates; anything else goes to the
// text-completion endpoint with a corpus summary, falling back to a canned
// reply when the upstream is unreachable.
type AssistantUseCase struct {
	repo      ports.FileRepository
	generator ports.TextGenerator
}

func NewAssistantUseCase(repo ports.FileRepository, generator ports.TextGenerator) *AssistantUseCase {
	return &AssistantUseCase{repo: repo, generator: generator}
}

func (uc *AssistantUseCase) Chat(ctx context.Context, message string) (*domain.AssistantReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.WrapError(domain.ErrValidation, "assistant chat", errors.New("message is required"))
	}

	stats, err := uc.repo.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus statistics: %w", err)
	}

	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "statistic", "report", "สถิติ", "รายงาน"):
		return statisticsReply(stats), nil
	case containsAny(lower, "suspicious", "risk", "duplicate", "น่าสงสัย", "เสี่ยง"):
		return uc.suspiciousReply(ctx, stats)
	case containsAny(lower, "ocr", "extracted text", "อ่านข้อความ"):
		return ocrReply(stats), nil
	}

	return uc.generatedReply(ctx, message, stats)
}

func (uc *AssistantUseCase) SuspiciousFiles(ctx context.Context) ([]domain.UploadedFile, error) {
	files, err := uc.repo.ListSuspicious(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suspicious files: %w", err)
	}
	return files, nil
}

func (uc *AssistantUseCase) generatedReply(
	ctx context.Context,
	message string,
	stats *domain.Statistics,
) (*domain.AssistantReply, error) {
	recent, err := uc.repo.ListRecent(ctx, assistantContextFiles)
	if err != nil {
		return nil, fmt.Errorf("load recent files: %w", err)
	}

	text, err := uc.generator.GenerateFromPrompt(ctx, buildAssistantPrompt(message, stats, recent))
	if err != nil {
		slog.Warn("assistant_generation_fallback", "error", err)
		return fallbackReply(stats), nil
	}

	return &domain.AssistantReply{
		Text:     text,
		Kind:     "general",
		Provider: "ollama",
		Context:  map[string]any{"total_files": stats.TotalFiles},
	}, nil
}

func (uc *AssistantUseCase) suspiciousReply(ctx context.Context, stats *domain.Statistics) (*domain.AssistantReply, error) {
	files, err := uc.repo.ListSuspicious(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suspicious files: %w", err)
	}

	var sb strings.Builder
	if len(files) == 0 {
		sb.WriteString("No suspicious files detected. ")
		fmt.Fprintf(&sb, "All %d files passed similarity checks.", stats.TotalFiles)
	} else {
		fmt.Fprintf(&sb, "Found %d suspicious file(s):\n", len(files))
		for i, file := range files {
			if i >= 5 {
				fmt.Fprintf(&sb, "...and %d more.", len(files)-5)
				break
			}
			fmt.Fprintf(&sb, "%d. %s (owner: %s)\n", i+1, file.OriginalName, file.Owner)
		}
	}

	return &domain.AssistantReply{
		Text:     sb.String(),
		Kind:     "suspicious_analysis",
		Provider: "heuristic",
		Context: map[string]any{
			"suspicious_count": len(files),
			"total_files":      stats.TotalFiles,
		},
	}, nil
}

func statisticsReply(stats *domain.Statistics) *domain.AssistantReply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "System report: %d files total, %d uploaded today, %s stored across %d owner(s).\n",
		stats.TotalFiles, stats.TodayFiles, formatByteSize(stats.TotalSizeBytes), stats.UniqueOwners)
	for _, bt := range stats.ByType {
		fmt.Fprintf(&sb, "- %s: %d file(s), %s\n", bt.MimeType, bt.Count, formatByteSize(bt.TotalSize))
	}

	return &domain.AssistantReply{
		Text:     sb.String(),
		Kind:     "statistics",
		Provider: "heuristic",
		Context:  map[string]any{"total_files": stats.TotalFiles},
	}
}

func ocrReply(stats *domain.Statistics) *domain.AssistantReply {
	rate := 0
	if stats.TotalFiles > 0 {
		rate = int(stats.FilesWithOCR * 100 / stats.TotalFiles)
	}
	text := fmt.Sprintf(
		"Text extraction: %d of %d files processed (%d%%). %d file(s) still waiting.",
		stats.FilesWithOCR, stats.TotalFiles, rate, stats.TotalFiles-stats.FilesWithOCR,
	)

	return &domain.AssistantReply{
		Text:     text,
		Kind:     "ocr_analysis",
		Provider: "heuristic",
		Context:  map[string]any{"processed_files": stats.FilesWithOCR},
	}
}

func fallbackReply(stats *domain.Statistics) *domain.AssistantReply {
	text := fmt.Sprintf(
		"The assistant model is currently unavailable. The system holds %d file(s); "+
			"ask about statistics, suspicious files, or extracted text for a direct answer.",
		stats.TotalFiles,
	)
	return &domain.AssistantReply{
		Text:     text,
		Kind:     "general",
		Provider: "heuristic",
		Context:  map[string]any{"total_files": stats.TotalFiles},
	}
}

func buildAssistantPrompt(message string, stats *domain.Statistics, recent []domain.UploadedFile) string {
	var sb strings.Builder
	sb.WriteString("You are an assistant for a document intake system holding receipts, invoices and contracts.\n")
	fmt.Fprintf(&sb, "Corpus: %d files, %d flagged as similar, %d with extracted text.\n",
		stats.TotalFiles, stats.SuspiciousFiles, stats.FilesWithOCR)

	if len(recent) > 0 {
		sb.WriteString("Most recent files:\n")
		for i, file := range recent {
			if i >= 20 {
				break
			}
			fmt.Fprintf(&sb, "- %s (entity=%s, status=%s)\n", file.OriginalName, file.EntityName, file.ProcessingStatus)
		}
	}

	sb.WriteString("\nAnswer the user's question concisely using only this context.\n")
	sb.WriteString("Question: ")
	sb.WriteString(message)
	return sb.String()
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func formatByteSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
