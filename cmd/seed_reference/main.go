package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"ai-procedure-assistant-be/internal/config"
	"ai-procedure-assistant-be/internal/model"
	"ai-procedure-assistant-be/internal/repository/implementation"
	"ai-procedure-assistant-be/pkg/database"
	"ai-procedure-assistant-be/pkg/embedding"
	"ai-procedure-assistant-be/pkg/events"
	pktNats "ai-procedure-assistant-be/pkg/nats"
)

// Seed file layout: a list of collections with their documents, the
// reference questions to embed and the document text already split
// into chunks.
type seedCollection struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Documents   []seedDocument `json:"documents"`
}

type seedDocument struct {
	Id        string            `json:"id"`
	Title     string            `json:"title"`
	Metadata  map[string]string `json:"metadata"`
	Questions []string          `json:"questions"`
	Chunks    []string          `json:"chunks"`
}

func main() {
	cfg := config.Load()

	seedPath := "seed/reference_catalog.json"
	if len(os.Args) > 1 {
		seedPath = os.Args[1]
	}

	raw, err := os.ReadFile(seedPath)
	if err != nil {
		log.Fatalf("Error: cannot read seed file %s: %v", seedPath, err)
	}
	var collections []seedCollection
	if err := json.Unmarshal(raw, &collections); err != nil {
		log.Fatalf("Error: invalid seed file: %v", err)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var embedder embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embedder = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	}

	catalogRepo := implementation.NewCatalogRepository(db)
	chunkRepo := implementation.NewChunkRepository(db)

	ctx := context.Background()
	totalQuestions := 0
	collectionIds := make([]string, 0, len(collections))

	for order, col := range collections {
		color.Cyan("Seeding collection %s (%s)", col.Id, col.Name)
		collectionIds = append(collectionIds, col.Id)

		err := catalogRepo.UpsertCollections(ctx, []*model.Collection{{
			Id:          col.Id,
			Name:        col.Name,
			Description: col.Description,
			SortOrder:   order,
		}})
		if err != nil {
			log.Fatalf("Error: upsert collection %s: %v", col.Id, err)
		}

		var questions []*model.ReferenceQuestion
		if err := chunkRepo.DeleteByCollection(ctx, col.Id); err != nil {
			log.Fatalf("Error: clear chunks of %s: %v", col.Id, err)
		}

		for docOrder, doc := range col.Documents {
			metadata := make(datatypes.JSONMap, len(doc.Metadata))
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			err := catalogRepo.UpsertDocuments(ctx, []*model.Document{{
				Id:           doc.Id,
				CollectionId: col.Id,
				Title:        doc.Title,
				SortOrder:    docOrder,
				Metadata:     metadata,
			}})
			if err != nil {
				log.Fatalf("Error: upsert document %s: %v", doc.Id, err)
			}

			questionVectors, err := embedder.GenerateBatch(ctx, doc.Questions, embedding.TaskRetrievalQuery)
			if err != nil {
				log.Fatalf("Error: embed questions of %s: %v", doc.Id, err)
			}
			for i, vec := range questionVectors {
				questions = append(questions, &model.ReferenceQuestion{
					Id:             uuid.New(),
					CollectionId:   col.Id,
					DocumentId:     doc.Id,
					Question:       doc.Questions[i],
					EmbeddingValue: pgvector.NewVector(embedding.Normalize(vec)),
					SortOrder:      i,
				})
			}

			chunkVectors, err := embedder.GenerateBatch(ctx, doc.Chunks, embedding.TaskRetrievalDocument)
			if err != nil {
				log.Fatalf("Error: embed chunks of %s: %v", doc.Id, err)
			}
			chunks := make([]*model.Chunk, len(chunkVectors))
			for i, vec := range chunkVectors {
				chunks[i] = &model.Chunk{
					Id:             uuid.New(),
					CollectionId:   col.Id,
					DocumentId:     doc.Id,
					ChunkIndex:     i,
					Content:        doc.Chunks[i],
					EmbeddingValue: pgvector.NewVector(embedding.Normalize(vec)),
				}
			}
			if err := chunkRepo.CreateBulk(ctx, chunks); err != nil {
				log.Fatalf("Error: insert chunks of %s: %v", doc.Id, err)
			}

			color.Green("  %s: %d questions, %d chunks", doc.Id, len(doc.Questions), len(doc.Chunks))
		}

		if err := catalogRepo.ReplaceReferenceQuestions(ctx, col.Id, questions); err != nil {
			log.Fatalf("Error: replace reference questions of %s: %v", col.Id, err)
		}
		totalQuestions += len(questions)
	}

	color.Cyan("Seeded %d collections, %d reference questions", len(collections), totalQuestions)

	// Tell running servers to reload the routing catalog.
	pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		color.Yellow("NATS unavailable, servers must be restarted manually: %v", err)
		return
	}
	defer pub.Close()

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pub.Publish(pubCtx, events.NewCatalogRebuilt(collectionIds, totalQuestions)); err != nil {
		color.Yellow("Failed to publish rebuild event: %v", err)
		return
	}
	color.Green("Catalog rebuild event published")
}
