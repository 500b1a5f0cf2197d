package model

import "errors"

// ErrNoToken is returned when a workspace operation runs without a provider token.
var ErrNoToken = errors.New("no provider token set")

// ProviderNotion is the token-store key for the Notion workspace API.
const ProviderNotion = "notion"

// Item kinds as reported by the workspace search API's "object" field.
const (
	ObjectPage     = "page"
	ObjectDatabase = "database"
)
