// Copyright © 2026 XBase Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package retrieval wraps a persistent chromem-go vector store with one
// collection per reference corpus, used to enrich the system prompt with
// top-k documentation snippets relevant to the user's query.
package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// Reference corpora. The corpus is chosen from the tenant's data-source
// descriptor prefix ("SQL:..." vs "CSV:...").
const (
	CorpusSQL = "sql_reference"
	CorpusCSV = "csv_reference"
)

// DefaultTopK bounds how many snippets are retrieved per query.
const DefaultTopK = 3

// Retriever is the lookup capability consumed by the orchestrator.
type Retriever interface {
	// Retrieve returns up to k context snippets ordered by relevance.
	Retrieve(ctx context.Context, corpus, query string, k int) ([]string, error)
}

// Document is a single reference snippet to index.
type Document struct {
	ID      string
	Content string
}

// Store wraps chromem-go with per-corpus collections and disk persistence.
type Store struct {
	mu      sync.RWMutex
	db      *chromem.DB
	embedFn chromem.EmbeddingFunc
}

var _ Retriever = (*Store)(nil)

// NewStore creates (or opens) the persistent vector store at
// dataDir/retrieval/. embedFunc is the embedding function to use, e.g.
// chromem.NewEmbeddingFuncOpenAI or an OpenAI-compatible endpoint func.
func NewStore(dataDir string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	dir := filepath.Join(dataDir, "retrieval")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create retrieval dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open retrieval store: %w", err)
	}
	return &Store{db: db, embedFn: embedFunc}, nil
}

// CorpusForDataSource selects the reference corpus for a tenant
// data-source descriptor.
func CorpusForDataSource(descriptor string) string {
	if strings.HasPrefix(descriptor, "CSV:") {
		return CorpusCSV
	}
	return CorpusSQL
}

func (s *Store) getOrCreateCollection(corpus string) (*chromem.Collection, error) {
	col := s.db.GetCollection(corpus, s.embedFn)
	if col == nil {
		var err error
		col, err = s.db.CreateCollection(corpus, nil, s.embedFn)
		if err != nil {
			return nil, fmt.Errorf("create collection %s: %w", corpus, err)
		}
	}
	return col, nil
}

// Index adds (or re-indexes) reference documents into a corpus.
func (s *Store) Index(ctx context.Context, corpus string, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.getOrCreateCollection(corpus)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := col.AddDocument(ctx, chromem.Document{
			ID:      doc.ID,
			Content: doc.Content,
		}); err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Retrieve returns the top-k snippets most similar to the query.
func (s *Store) Retrieve(ctx context.Context, corpus, query string, k int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		k = DefaultTopK
	}

	col, err := s.getOrCreateCollection(corpus)
	if err != nil {
		return nil, err
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query corpus %s: %w", corpus, err)
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Content)
	}
	return out, nil
}
