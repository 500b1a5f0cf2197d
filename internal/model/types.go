package model

import (
	"encoding/json"
	"fmt"
)

// WorkspaceItem is a page or database record returned by the workspace search API.
type WorkspaceItem struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Label returns the display label for the item kind ("Page" or "Database").
func (i WorkspaceItem) Label() string {
	switch i.Kind {
	case ObjectPage:
		return "Page"
	case ObjectDatabase:
		return "Database"
	default:
		return i.Kind
	}
}

// Summary renders the item the way it is injected into chat prompts:
// "<Label>: <title-or-id> (<url>)".
func (i WorkspaceItem) Summary() string {
	name := i.Title
	if name == "" {
		name = i.ID
	}
	return fmt.Sprintf("%s: %s (%s)", i.Label(), name, i.URL)
}

// SearchQuery parameterises one call to the workspace search endpoint.
type SearchQuery struct {
	PageSize    int
	StartCursor string
}

// SearchResult carries both the untouched response body and the items that
// could be extracted from it.
type SearchResult struct {
	Raw        json.RawMessage
	Items      []WorkspaceItem
	HasMore    bool
	NextCursor string
}

// GenerateRequest is a single non-streaming completion request.
type GenerateRequest struct {
	Model  string
	Prompt string
}

// GenerateResult holds the generated text. Answered is false when the
// inference service returned a body without a response field.
type GenerateResult struct {
	Text     string
	Answered bool
}
