package scorer

import (
	"github.com/sells-group/lead-classifier/internal/conversation"
	"github.com/sells-group/lead-classifier/internal/model"
)

func textMsg(from model.Role, at, text string) model.Message {
	return model.Message{
		CreationTime: at,
		From:         from,
		Content:      model.Content{Type: model.ContentText, Text: text},
		Chat:         model.ChatRef{ChatID: "chat-1"},
	}
}

func mediaMsg(from model.Role, at string, ct model.ContentType) model.Message {
	return model.Message{
		CreationTime: at,
		From:         from,
		Content:      model.Content{Type: ct, URL: "https://cdn.example.com/file"},
		Chat:         model.ChatRef{ChatID: "chat-1"},
	}
}

func newConv(msgs ...model.Message) conversation.Conversation {
	return conversation.Conversation{ChatID: "chat-1", Messages: msgs}
}

// userSays builds a conversation where the bot greets and the user replies
// with each text one minute apart.
func userSays(texts ...string) conversation.Conversation {
	msgs := []model.Message{textMsg(model.RoleBot, "2025-01-10T10:00:00Z", "Hola, ¿en qué programa estás interesado?")}
	for i, t := range texts {
		at := "2025-01-10T10:0" + string(rune('1'+i)) + ":00Z"
		msgs = append(msgs, textMsg(model.RoleUser, at, t))
	}
	return newConv(msgs...)
}
