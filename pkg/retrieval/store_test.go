// Copyright © 2026 XBase Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package retrieval

import (
	"context"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"
)

// keywordEmbedding is a deterministic stand-in for a real embedding model:
// texts sharing a keyword land on the same axis.
func keywordEmbedding(ctx context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "join"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "aggregate"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), chromem.EmbeddingFunc(keywordEmbedding))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestStore_IndexAndRetrieve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Index(ctx, CorpusSQL, []Document{
		{ID: "1", Content: "how to join two tables"},
		{ID: "2", Content: "left join versus inner join"},
		{ID: "3", Content: "aggregate functions overview"},
	})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	got, err := store.Retrieve(ctx, CorpusSQL, "join users and orders", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 snippets, got %d", len(got))
	}
	for _, snippet := range got {
		if !strings.Contains(snippet, "join") {
			t.Errorf("Expected join-related snippet, got %q", snippet)
		}
	}
}

func TestStore_Retrieve_EmptyCorpus(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Retrieve(context.Background(), CorpusCSV, "anything", 3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected no snippets from empty corpus, got %v", got)
	}
}

func TestStore_Retrieve_ClampsK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Index(ctx, CorpusSQL, []Document{{ID: "1", Content: "only doc"}}); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	got, err := store.Retrieve(ctx, CorpusSQL, "query", 10)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected k clamped to corpus size, got %d", len(got))
	}
}

func TestCorpusForDataSource(t *testing.T) {
	if got := CorpusForDataSource("CSV:sales.csv"); got != CorpusCSV {
		t.Errorf("Expected csv corpus, got %s", got)
	}
	if got := CorpusForDataSource("SQL:postgres"); got != CorpusSQL {
		t.Errorf("Expected sql corpus, got %s", got)
	}
	if got := CorpusForDataSource(""); got != CorpusSQL {
		t.Errorf("Expected sql corpus default, got %s", got)
	}
}
