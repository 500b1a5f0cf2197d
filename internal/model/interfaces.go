package model

import "context"

// TokenStore holds at most one credential per provider name.
type TokenStore interface {
	Get(ctx context.Context, provider string) (string, bool, error)
	Set(ctx context.Context, provider, token string) error
	Delete(ctx context.Context, provider string) error
	Close() error
}

// Searcher queries the workspace API on behalf of the holder of token.
type Searcher interface {
	Search(ctx context.Context, token string, query SearchQuery) (SearchResult, error)
}

// Generator produces a completion from the local inference service.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}
