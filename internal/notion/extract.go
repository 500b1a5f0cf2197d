package notion

import (
	"strings"

	"github.com/tidwall/gjson"

	"solendir/internal/model"
)

// ExtractItems converts the results array of a search response into
// workspace items. Pages take their title from the first property of type
// "title" (in document order), databases from their own title array; both
// fall back to the object id. Objects of any other kind are skipped.
func ExtractItems(body []byte) []model.WorkspaceItem {
	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return nil
	}

	var items []model.WorkspaceItem
	results.ForEach(func(_, obj gjson.Result) bool {
		item := model.WorkspaceItem{
			Kind: obj.Get("object").String(),
			ID:   obj.Get("id").String(),
			URL:  obj.Get("url").String(),
		}
		switch item.Kind {
		case model.ObjectPage:
			item.Title = pageTitle(obj.Get("properties"))
		case model.ObjectDatabase:
			item.Title = joinPlainText(obj.Get("title"))
		default:
			return true
		}
		items = append(items, item)
		return true
	})
	return items
}

func pageTitle(props gjson.Result) string {
	var title string
	props.ForEach(func(_, prop gjson.Result) bool {
		if prop.Get("type").String() != "title" {
			return true
		}
		fragments := prop.Get("title")
		if !fragments.IsArray() || len(fragments.Array()) == 0 {
			return true
		}
		title = joinPlainText(fragments)
		return false
	})
	return title
}

func joinPlainText(fragments gjson.Result) string {
	if !fragments.IsArray() {
		return ""
	}
	var b strings.Builder
	for _, f := range fragments.Array() {
		b.WriteString(f.Get("plain_text").String())
	}
	return b.String()
}

// Summaries renders each item for prompt injection.
func Summaries(items []model.WorkspaceItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Summary())
	}
	return out
}

func parseSearchBody(body []byte) model.SearchResult {
	parsed := gjson.ParseBytes(body)
	return model.SearchResult{
		Raw:        append([]byte(nil), body...),
		Items:      ExtractItems(body),
		HasMore:    parsed.Get("has_more").Bool(),
		NextCursor: parsed.Get("next_cursor").String(),
	}
}
