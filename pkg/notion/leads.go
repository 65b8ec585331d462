package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-classifier/internal/model"
)

// Lead database property names.
const (
	PropName       = "Name"
	PropChatID     = "Chat ID"
	PropScore      = "Score"
	PropMotivation = "Motivación"
	PropPayment    = "Pago"
	PropBehavior   = "Comportamiento"
	PropReason     = "Razón"
	PropSignals    = "Señales"
	PropState      = "Estado"
	PropUTMSource  = "UTM Source"
	PropUTMMedium  = "UTM Medium"
	PropUTMOrigen  = "UTM Origen"
	PropProgram    = "Programa"
	PropResolution = "Resolución"
	PropStatus     = "Status"
)

// StatusQueued marks a lead page waiting for a sales rep.
const StatusQueued = "Queued"

// maxRichTextLength is the Notion limit for one rich text object.
const maxRichTextLength = 2000

// PushSummary counts the pages touched by PushSQLLeads.
type PushSummary struct {
	Created int
	Updated int
}

// PushSQLLeads creates a page per SQL lead in dbID with Status "Queued".
// Leads whose chat already has a page are updated in place and keep their
// status, so repeated runs do not duplicate the hand-off queue.
func PushSQLLeads(ctx context.Context, c Client, dbID string, results []model.ClassificationResult) (PushSummary, error) {
	var summary PushSummary

	existing, err := LeadPagesByChatID(ctx, c, dbID)
	if err != nil {
		return summary, err
	}

	for _, r := range results {
		if r.Clasificacion != model.TierSQL {
			continue
		}
		if ctx.Err() != nil {
			return summary, eris.Wrap(ctx.Err(), "notion: push sql leads cancelled")
		}

		props := leadProperties(r)
		if pageID, ok := existing[r.ChatID]; ok {
			req := &notionapi.PageUpdateRequest{Properties: props}
			if _, err := c.UpdatePage(ctx, string(pageID), req); err != nil {
				return summary, eris.Wrap(err, "notion: update lead page "+r.ChatID)
			}
			summary.Updated++
			continue
		}

		props[PropStatus] = notionapi.StatusProperty{
			Type:   notionapi.PropertyTypeStatus,
			Status: notionapi.Status{Name: StatusQueued},
		}
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: props,
		}
		if _, err := c.CreatePage(ctx, req); err != nil {
			return summary, eris.Wrap(err, "notion: create lead page "+r.ChatID)
		}
		summary.Created++
	}

	zap.L().Info("notion: pushed sql leads",
		zap.String("database", dbID),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
	)
	return summary, nil
}

// leadProperties converts a result to page properties. The phone is the
// page title; empty attribution fields are omitted.
func leadProperties(r model.ClassificationResult) notionapi.Properties {
	title := r.Telefono
	if title == "" {
		title = "chat " + r.ChatID
	}

	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(title),
		},
		PropChatID:     richTextProperty(r.ChatID),
		PropScore:      numberProperty(r.ScoreTotal),
		PropMotivation: numberProperty(r.ScoreMotivacion),
		PropPayment:    numberProperty(r.ScorePago),
		PropBehavior:   numberProperty(r.ScoreComportamiento),
		PropReason:     richTextProperty(r.RazonPrincipal),
		PropSignals:    richTextProperty(strings.Join(r.SenalesClave, "; ")),
		PropState:      richTextProperty(string(r.EstadoConversacion)),
	}

	for name, v := range map[string]string{
		PropUTMSource:  r.UTMSource,
		PropUTMMedium:  r.UTMMedium,
		PropUTMOrigen:  r.UTMOrigen,
		PropProgram:    r.ProgramaInteres,
		PropResolution: r.Resolucion,
	} {
		if v != "" {
			props[name] = richTextProperty(v)
		}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	if r := []rune(s); len(r) > maxRichTextLength {
		s = string(r[:maxRichTextLength])
	}
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}

func richTextProperty(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: richText(s),
	}
}

func numberProperty(n int) notionapi.NumberProperty {
	return notionapi.NumberProperty{
		Type:   notionapi.PropertyTypeNumber,
		Number: float64(n),
	}
}
