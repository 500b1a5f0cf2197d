package relay

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"solendir/internal/model"
	"solendir/internal/notion"
)

// NoResponsePlaceholder is returned when the inference service answers
// without a response field.
const NoResponsePlaceholder = "(No response from Llama3)"

const (
	defaultChatPageSize   = 20
	defaultBrowsePageSize = 10
)

var tracer = otel.Tracer("solendir/relay")

// Credentials are resolved per request by the caller and threaded through
// explicitly; the relay never reads shared token state itself.
type Credentials struct {
	NotionToken string
}

// present reports whether a non-blank workspace token was supplied.
func (c Credentials) present() bool {
	return strings.TrimSpace(c.NotionToken) != ""
}

type Options struct {
	Model          string
	ChatPageSize   int
	BrowsePageSize int
	Logger         *zap.Logger
}

// Answer is the outcome of one chat relay.
type Answer struct {
	Text      string
	Prompt    string
	Augmented bool
	Terms     []string
}

type Service struct {
	searcher  model.Searcher
	generator model.Generator
	opts      Options
	logger    *zap.Logger
}

func NewService(searcher model.Searcher, generator model.Generator, opts Options) *Service {
	if opts.ChatPageSize <= 0 {
		opts.ChatPageSize = defaultChatPageSize
	}
	if opts.BrowsePageSize <= 0 {
		opts.BrowsePageSize = defaultBrowsePageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		searcher:  searcher,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Chat forwards message to the inference service, first enriching it with
// workspace context when a token is present and the message mentions a
// workspace keyword. A failed workspace search does not abort the relay; the
// failure text is injected in place of the item list.
func (s *Service) Chat(ctx context.Context, creds Credentials, message string) (Answer, error) {
	ctx, span := tracer.Start(ctx, "relay.chat")
	defer span.End()

	answer := Answer{Prompt: message}
	if creds.present() {
		class := Classify(message)
		if class.Relevant {
			answer.Augmented = true
			answer.Terms = class.Terms
			answer.Prompt = BuildPrompt(message, s.workspaceSummaries(ctx, creds.NotionToken))
		}
	}
	span.SetAttributes(
		attribute.Bool("relay.augmented", answer.Augmented),
		attribute.StringSlice("relay.terms", answer.Terms),
	)

	res, err := s.generator.Generate(ctx, model.GenerateRequest{Model: s.opts.Model, Prompt: answer.Prompt})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(model.KindOf(err)))
		return answer, err
	}
	if !res.Answered {
		answer.Text = NoResponsePlaceholder
		return answer, nil
	}
	answer.Text = res.Text
	return answer, nil
}

func (s *Service) workspaceSummaries(ctx context.Context, token string) []string {
	res, err := s.searcher.Search(ctx, token, model.SearchQuery{PageSize: s.opts.ChatPageSize})
	if err != nil {
		s.logger.Warn("workspace search failed; continuing without items",
			zap.String("kind", string(model.KindOf(err))),
			zap.Error(err))
		return []string{"Error fetching Notion items: " + err.Error()}
	}
	// Objects other than pages and databases are not summarised.
	results := len(gjson.GetBytes(res.Raw, "results").Array())
	s.logger.Debug("workspace context fetched",
		zap.Int("items", len(res.Items)),
		zap.Int("skipped", max(0, results-len(res.Items))))
	return notion.Summaries(res.Items)
}

// Browse returns the unprocessed search response for the holder of the
// credentials. cursor, when set, is forwarded as the start cursor.
func (s *Service) Browse(ctx context.Context, creds Credentials, cursor string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "relay.browse")
	defer span.End()

	if !creds.present() {
		return nil, model.ErrNoToken
	}
	res, err := s.searcher.Search(ctx, creds.NotionToken, model.SearchQuery{
		PageSize:    s.opts.BrowsePageSize,
		StartCursor: cursor,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(model.KindOf(err)))
		return nil, err
	}
	if len(res.Raw) == 0 {
		return nil, &model.ProviderError{Provider: "notion", Kind: model.KindParse, Message: "empty search response"}
	}
	return res.Raw, nil
}

// IsNoToken reports whether err means no workspace token was available.
func IsNoToken(err error) bool {
	return errors.Is(err, model.ErrNoToken)
}
