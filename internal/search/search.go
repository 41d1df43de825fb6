// Package search maintains a full-text index over prompt versions so
// history can be searched by content, message, tags or author.
package search

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/promptpit/pit/internal/config"
	"github.com/promptpit/pit/internal/store"
)

// IndexDir is the index directory name under .pit/.
const IndexDir = "search.bleve"

// Result is one search hit.
type Result struct {
	VersionID     string
	PromptName    string
	VersionNumber int
	Score         float64
}

// Index is a full-text index over versions, keyed by version id.
type Index struct {
	index bleve.Index
	path  string
}

// Open opens or creates the index under the project root. A corrupted
// index is deleted and rebuilt empty; callers can Rebuild to repopulate.
func Open(projectRoot string) (*Index, error) {
	indexPath := filepath.Join(projectRoot, config.PitDir, IndexDir)

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create search index: %w", err)
		}
	} else if err != nil {
		log.Printf("search index appears corrupted (%v), recreating", err)
		if index != nil {
			index.Close()
		}
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupted search index: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate search index: %w", err)
		}
	}

	return &Index{index: index, path: indexPath}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	versionMapping := bleve.NewDocumentMapping()

	promptNameField := bleve.NewTextFieldMapping()
	promptNameField.Analyzer = keyword.Name
	promptNameField.Store = true
	versionMapping.AddFieldMappingsAt("prompt_name", promptNameField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = keyword.Name
	authorField.Store = true
	versionMapping.AddFieldMappingsAt("author", authorField)

	versionNumberField := bleve.NewNumericFieldMapping()
	versionNumberField.Store = true
	versionMapping.AddFieldMappingsAt("version_number", versionNumberField)

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = false
	versionMapping.AddFieldMappingsAt("content", contentField)

	messageField := bleve.NewTextFieldMapping()
	messageField.Analyzer = standard.Name
	messageField.Store = false
	versionMapping.AddFieldMappingsAt("message", messageField)

	tagsField := bleve.NewTextFieldMapping()
	tagsField.Analyzer = standard.Name
	tagsField.Store = false
	versionMapping.AddFieldMappingsAt("tags", tagsField)

	indexMapping.DefaultMapping = versionMapping
	return indexMapping
}

// IndexVersion adds or updates one version in the index.
func (i *Index) IndexVersion(promptName string, v *store.Version) error {
	doc := map[string]any{
		"prompt_name":    promptName,
		"author":         v.Author,
		"version_number": v.VersionNumber,
		"content":        v.Content,
		"message":        v.Message,
		"tags":           v.Tags,
	}
	return i.index.Index(v.ID, doc)
}

// DeletePrompt removes every indexed version of a prompt.
func (i *Index) DeletePrompt(versionIDs []string) error {
	batch := i.index.NewBatch()
	for _, id := range versionIDs {
		batch.Delete(id)
	}
	return i.index.Batch(batch)
}

// Search matches free text against content, message and tags, optionally
// restricted to one prompt. Results come back by descending score.
func (i *Index) Search(query, promptName string, limit int) ([]Result, error) {
	matchQuery := bleve.NewMatchQuery(query)

	var req *bleve.SearchRequest
	if promptName != "" {
		promptQuery := bleve.NewTermQuery(promptName)
		promptQuery.SetField("prompt_name")
		req = bleve.NewSearchRequest(bleve.NewConjunctionQuery(matchQuery, promptQuery))
	} else {
		req = bleve.NewSearchRequest(matchQuery)
	}
	req.Size = limit
	req.Fields = []string{"prompt_name", "version_number"}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{VersionID: hit.ID, Score: hit.Score}
		if name, ok := hit.Fields["prompt_name"].(string); ok {
			r.PromptName = name
		}
		if n, ok := hit.Fields["version_number"].(float64); ok {
			r.VersionNumber = int(n)
		}
		results = append(results, r)
	}
	return results, nil
}

// Rebuild drops everything and re-indexes every version in the store.
func (i *Index) Rebuild(ctx context.Context, s *store.Store) error {
	prompts, err := s.ListPrompts(ctx)
	if err != nil {
		return err
	}

	batch := i.index.NewBatch()
	for _, p := range prompts {
		versions, err := s.ListVersions(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, v := range versions {
			doc := map[string]any{
				"prompt_name":    p.Name,
				"author":         v.Author,
				"version_number": v.VersionNumber,
				"content":        v.Content,
				"message":        v.Message,
				"tags":           v.Tags,
			}
			if err := batch.Index(v.ID, doc); err != nil {
				return fmt.Errorf("failed to batch version %s: %w", v.ID, err)
			}
		}
	}
	return i.index.Batch(batch)
}

// Close releases the underlying index.
func (i *Index) Close() error {
	return i.index.Close()
}
