package bootstrap

import (
	"context"
	"fmt"

	"github.com/chaiyut/docintake/internal/config"
	"github.com/chaiyut/docintake/internal/core/ports"
	"github.com/chaiyut/docintake/internal/core/usecase"
	"github.com/chaiyut/docintake/internal/infrastructure/extractor/pdftext"
	"github.com/chaiyut/docintake/internal/infrastructure/llm/ollama"
	"github.com/chaiyut/docintake/internal/infrastructure/queue/nats"
	"github.com/chaiyut/docintake/internal/infrastructure/repository/postgres"
	"github.com/chaiyut/docintake/internal/infrastructure/resilience"
	"github.com/chaiyut/docintake/internal/infrastructure/storage/localdisk"
)

type App struct {
	Config config.Config

	Queue   ports.MessageQueue
	Repo    ports.FileRepository
	Storage ports.BlobStorage

	IngestUC    ports.BatchIngestor
	QueryUC     ports.FileQueryService
	ContentUC   ports.FileContentService
	EnrichUC    ports.FileEnricher
	AssistantUC ports.Assistant

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewFileRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localdisk.New(cfg.UploadDir, cfg.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("init blob storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel)
	generator := ollama.NewGenerator(ollamaClient)
	fields := ollama.NewFieldExtractor(ollamaClient)
	extractor := pdftext.NewExtractor(storage)

	ingestUC := usecase.NewIngestBatchUseCase(repo, storage, queue)
	queryUC := usecase.NewFileQueryUseCase(repo, storage)
	contentUC := usecase.NewFileContentUseCase(repo, storage)
	enrichUC := usecase.NewEnrichFileUseCase(repo, extractor, fields)
	assistantUC := usecase.NewAssistantUseCase(repo, generator)

	return &App{
		Config:  cfg,
		Queue:   queue,
		Repo:    repo,
		Storage: storage,

		IngestUC:    ingestUC,
		QueryUC:     queryUC,
		ContentUC:   contentUC,
		EnrichUC:    enrichUC,
		AssistantUC: assistantUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
