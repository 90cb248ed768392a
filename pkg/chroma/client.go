package chroma

import (
	"context"
	"fmt"
	"log"
	"os"

	"flowdesk-backend/pkg/config"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

// NoteIndex is a Chroma-backed vector index over workspace notes. The
// project and client usecases mirror their notes into it on every write,
// and the answer_question assistant tool queries it to attach sources to
// its replies.
type NoteIndex struct {
	client     chroma.Client
	embedFunc  *gemini.GeminiEmbeddingFunction
	config     *config.Config
	collection chroma.Collection
}

func NewNoteIndex(cfg *config.Config) (*NoteIndex, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}

	// The embedding function reads the Gemini key from the environment
	if cfg.GeminiApiKey != "" {
		os.Setenv("GEMINI_API_KEY", cfg.GeminiApiKey)
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	var client chroma.Client
	if cfg.ChromaDatabase != "" && cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant),
		)
	} else if cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithTenant(cfg.ChromaTenant),
		)
	} else {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	ctx := context.Background()
	collection, err := client.GetOrCreateCollection(
		ctx,
		"workspace-notes",
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("Initialized Chroma note index with collection: workspace-notes")

	return &NoteIndex{
		client:     client,
		embedFunc:  embedFunc,
		config:     cfg,
		collection: collection,
	}, nil
}

// UpsertNote indexes or re-indexes one entity's text. entityID doubles
// as the document ID, so repeated upserts never duplicate.
func (n *NoteIndex) UpsertNote(ctx context.Context, userID, entityType, entityID, title, body string) error {
	text := fmt.Sprintf("%s: %s\n\n%s", entityType, title, body)
	if len(text) > 10000 {
		// Truncate if too long (embedding models have token limits)
		text = text[:10000]
	}

	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		"user_id":     userID,
		"entity_type": entityType,
		"entity_id":   entityID,
		"title":       title,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = n.collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(entityID)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(text),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert note embedding: %w", err)
	}

	return nil
}

// Search returns entity IDs ranked by semantic similarity to the query,
// scoped to one user's workspace
func (n *NoteIndex) Search(ctx context.Context, userID, query string, limit int) ([]string, []float64, error) {
	if n.collection == nil {
		return nil, nil, fmt.Errorf("collection is nil")
	}

	where := chroma.EqString("user_id", userID)

	results, err := n.collection.Query(
		ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
		chroma.WithWhereQuery(where),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if results == nil || results.CountGroups() == 0 {
		return []string{}, []float64{}, nil
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 || len(idGroups[0]) == 0 {
		return []string{}, []float64{}, nil
	}

	entityIDs := make([]string, 0, len(idGroups[0]))
	for _, id := range idGroups[0] {
		entityIDs = append(entityIDs, string(id))
	}

	distances := []float64{}
	if len(distanceGroups) > 0 && len(distanceGroups[0]) > 0 {
		for _, d := range distanceGroups[0] {
			distances = append(distances, float64(d))
		}
	}

	return entityIDs, distances, nil
}

// DeleteNote removes an entity from the index
func (n *NoteIndex) DeleteNote(ctx context.Context, entityID string) error {
	err := n.collection.Delete(ctx, chroma.WithIDsDelete(chroma.DocumentID(entityID)))
	if err != nil {
		return fmt.Errorf("failed to delete note embedding: %w", err)
	}
	return nil
}
