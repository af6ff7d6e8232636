package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"ai-procedure-assistant-be/internal/config"
	"ai-procedure-assistant-be/internal/dto"
	"ai-procedure-assistant-be/internal/repository/contract"
	"ai-procedure-assistant-be/pkg/embedding"
	"ai-procedure-assistant-be/pkg/llm"
	"ai-procedure-assistant-be/pkg/rag"
	"ai-procedure-assistant-be/pkg/rag/catalog"
	"ai-procedure-assistant-be/pkg/rag/clarify"
	ragcontext "ai-procedure-assistant-be/pkg/rag/context"
	"ai-procedure-assistant-be/pkg/rag/executor"
	"ai-procedure-assistant-be/pkg/rag/policy"
	"ai-procedure-assistant-be/pkg/rag/response"
	"ai-procedure-assistant-be/pkg/rag/router"
	"ai-procedure-assistant-be/pkg/rag/search"
	"ai-procedure-assistant-be/pkg/rag/session"
	"ai-procedure-assistant-be/pkg/rerank"
	"ai-procedure-assistant-be/pkg/store"
)

// IAssistantService defines the assistant service interface
type IAssistantService interface {
	Query(ctx context.Context, request *dto.QueryRequest) (*dto.QueryResponse, error)
	Clarify(ctx context.Context, request *dto.ClarifyRequest) (*dto.QueryResponse, error)
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionId string) (*dto.GetSessionResponse, error)
	GetCollections(ctx context.Context) ([]*dto.CollectionDTO, error)
	ReloadCatalog(ctx context.Context) error
}

// assistantService coordinates the routing pipeline components
type assistantService struct {
	catalogs          *catalog.Provider
	catalogRepo       contract.CatalogRepository
	sessions          *session.Manager
	pipeline          *executor.PipelineExecutor
	generationTimeout time.Duration
	ragLogger         *log.Logger
}

// NewAssistantService wires all pipeline components. The catalog must
// already be loaded; an empty one means the index is unusable and the
// caller should treat that as fatal.
func NewAssistantService(
	cfg *config.Config,
	catalogs *catalog.Provider,
	catalogRepo contract.CatalogRepository,
	chunkRepo contract.ChunkRepository,
	embedder embedding.Provider,
	llmProvider llm.LLMProvider,
	reranker rerank.Reranker,
	sessionRepo session.Store,
) (IAssistantService, error) {

	thresholds := rag.Thresholds{
		High:                 cfg.Routing.HighThreshold,
		MediumHigh:           cfg.Routing.MediumHighThreshold,
		Medium:               cfg.Routing.MediumThreshold,
		VeryHighGate:         cfg.Routing.VeryHighGate,
		MinContextConfidence: cfg.Routing.MinContextConfidence,
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("routing thresholds: %w", err)
	}

	if len(catalogs.Current().Collections()) == 0 {
		return nil, fmt.Errorf("reference catalog is empty: %w", rag.ErrIndexUnavailable)
	}

	ragLogger := initRagLogger()

	sessions := session.NewManager(sessionRepo, ragLogger)
	sessions.StartSweeper(cfg.Session.SweepInterval, cfg.Session.TTL, make(chan struct{}))

	expanderCfg := ragcontext.DefaultConfig()
	expanderCfg.BudgetChars = cfg.Context.BudgetChars
	expanderCfg.MaxChunksPerFile = cfg.Context.MaxChunksPerFile

	searchCfg := search.DefaultConfig()
	searchCfg.TopK = cfg.Routing.SearchTopK
	searchCfg.LogicThreshold = cfg.Routing.SearchScoreFloor

	pipeline := executor.NewPipelineExecutor(
		embedder,
		catalogs,
		router.NewRouter(catalogs, ragLogger),
		policy.NewPolicy(thresholds, ragLogger),
		clarify.NewEngine(catalogs, thresholds, clarify.DefaultConfig(), ragLogger),
		search.NewOrchestrator(chunkRepo, reranker, ragLogger),
		ragcontext.NewExpander(&documentFetcher{chunks: chunkRepo}, expanderCfg, ragLogger),
		response.NewGenerator(llmProvider, ragLogger),
		sessions,
		thresholds,
		searchCfg,
		ragLogger,
	)

	return &assistantService{
		catalogs:          catalogs,
		catalogRepo:       catalogRepo,
		sessions:          sessions,
		pipeline:          pipeline,
		generationTimeout: cfg.Ai.GenerationTimeout,
		ragLogger:         ragLogger,
	}, nil
}

func (s *assistantService) Query(ctx context.Context, request *dto.QueryRequest) (*dto.QueryResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	result, err := s.pipeline.Execute(ctx, request.SessionId, request.Query)
	if err != nil {
		s.ragLogger.Printf("[SERVICE] Turn failed: %v", err)
	}
	return toQueryResponse(result), nil
}

func (s *assistantService) Clarify(ctx context.Context, request *dto.ClarifyRequest) (*dto.QueryResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	selected := clarify.Option{
		ID:     request.Option.Id,
		Action: clarify.Action(request.Option.Action),
		Payload: clarify.Payload{
			CollectionID: request.Option.CollectionId,
			DocumentID:   request.Option.DocumentId,
			Question:     request.Option.Question,
		},
	}

	result, err := s.pipeline.SubmitClarification(ctx, request.SessionId, selected)
	if err != nil {
		// An unknown session is the client's addressing error, not a
		// turn outcome; it surfaces as a 404 instead of the error
		// variant. Pipeline failures stay in-band.
		if errors.Is(err, rag.ErrSessionNotFound) {
			return nil, err
		}
		s.ragLogger.Printf("[SERVICE] Clarification turn failed: %v", err)
	}
	return toQueryResponse(result), nil
}

func (s *assistantService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	created := s.sessions.Create()
	return &dto.CreateSessionResponse{
		SessionId: created.ID,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (s *assistantService) GetSession(ctx context.Context, sessionId string) (*dto.GetSessionResponse, error) {
	found, err := s.sessions.Get(sessionId)
	if err != nil {
		return nil, err
	}
	return &dto.GetSessionResponse{
		SessionId:           found.ID,
		Stage:               string(found.Stage),
		LastCollection:      found.LastCollection,
		LastDocument:        found.LastDocument,
		LastConfidence:      found.LastConfidence,
		LowConfidenceStreak: found.LowConfidenceStreak,
		CreatedAt:           found.CreatedAt,
		LastAccessedAt:      found.LastAccessedAt,
	}, nil
}

func (s *assistantService) GetCollections(ctx context.Context) ([]*dto.CollectionDTO, error) {
	cat := s.catalogs.Current()
	out := make([]*dto.CollectionDTO, 0, len(cat.Collections()))
	for i := range cat.Collections() {
		col := &cat.Collections()[i]
		out = append(out, &dto.CollectionDTO{
			Id:            col.ID,
			Name:          col.Name,
			DocumentCount: len(col.Documents),
			QuestionCount: col.QuestionCount(),
		})
	}
	return out, nil
}

// ReloadCatalog rebuilds the in-memory routing index from the
// database. Called on the seeder's rebuild event; in-flight turns keep
// the catalog they started with.
func (s *assistantService) ReloadCatalog(ctx context.Context) error {
	rebuilt, err := s.catalogRepo.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}
	s.catalogs.Swap(rebuilt)
	s.ragLogger.Printf("[SERVICE] Catalog reloaded: %d collections", len(rebuilt.Collections()))
	return nil
}

// documentFetcher adapts the chunk repository to the expander.
type documentFetcher struct {
	chunks contract.ChunkRepository
}

func (f *documentFetcher) ChunksByDocument(ctx context.Context, collectionID, documentID string) ([]store.Chunk, error) {
	return f.chunks.FindByDocument(ctx, collectionID, documentID)
}

func toQueryResponse(result *executor.ExecutionResult) *dto.QueryResponse {
	if result == nil {
		return &dto.QueryResponse{Status: string(executor.StatusError)}
	}

	out := &dto.QueryResponse{
		Status:        string(result.Status),
		SessionId:     result.SessionID,
		Collection:    result.Collection,
		Confidence:    result.Confidence,
		WasOverridden: result.WasOverridden,
		Message:       result.Message,
	}

	if result.Answer != nil {
		out.Answer = &dto.AnswerDTO{
			Text:      result.Answer.Text,
			Strategy:  string(result.Answer.Strategy),
			Citations: result.Answer.Citations,
		}
	}

	if result.Clarification != nil {
		options := make([]dto.ClarificationOptionDTO, 0, len(result.Clarification.Options))
		for _, opt := range result.Clarification.Options {
			options = append(options, dto.ClarificationOptionDTO{
				Id:           opt.ID,
				Title:        opt.Title,
				Description:  opt.Description,
				Action:       string(opt.Action),
				CollectionId: opt.Payload.CollectionID,
				DocumentId:   opt.Payload.DocumentID,
				Question:     opt.Payload.Question,
			})
		}
		out.Clarification = &dto.ClarificationDTO{
			Stage:   string(result.Clarification.Stage),
			Tier:    string(result.Clarification.Tier),
			Message: result.Clarification.Message,
			Options: options,
		}
	}

	return out
}

func initRagLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "assistant_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}
	return log.New(file, "[RAG] ", log.LstdFlags)
}
