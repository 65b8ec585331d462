package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// maxPageSize is the largest page the Notion query endpoint returns.
const maxPageSize = 100

// QueryAll follows next_cursor until the query is exhausted and returns the
// pages in server order. base supplies the filter and sorts; its cursor is
// ignored. A zero page size asks for maxPageSize.
func QueryAll(ctx context.Context, c Client, dbID string, base *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var req notionapi.DatabaseQueryRequest
	if base != nil {
		req.Filter, req.Sorts, req.PageSize = base.Filter, base.Sorts, base.PageSize
	}
	if req.PageSize == 0 {
		req.PageSize = maxPageSize
	}

	var pages []notionapi.Page
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all cancelled")
		}

		page := req
		resp, err := c.QueryDatabase(ctx, dbID, &page)
		if err != nil {
			return nil, eris.Wrapf(err, "notion: query all page %d", n)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// LeadPagesByChatID maps the chat ID of every lead page in dbID to its page
// ID. Pages without a chat ID are skipped.
func LeadPagesByChatID(ctx context.Context, c Client, dbID string) (map[string]notionapi.ObjectID, error) {
	pages, err := QueryAll(ctx, c, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: PropChatID,
			RichText: &notionapi.TextFilterCondition{IsNotEmpty: true},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: query lead pages")
	}

	byChat := make(map[string]notionapi.ObjectID, len(pages))
	for _, p := range pages {
		if id := chatIDOf(p); id != "" {
			byChat[id] = p.ID
		}
	}
	return byChat, nil
}

func chatIDOf(p notionapi.Page) string {
	prop, ok := p.Properties[PropChatID].(*notionapi.RichTextProperty)
	if !ok {
		return ""
	}
	return strings.TrimSpace(plainText(prop.RichText))
}

func plainText(rts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rts {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}
