package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-classifier/internal/model"
)

const sampleExport = `{
  "items": [
    {
      "id": "MSG_001",
      "creationTime": "2025-11-18T10:00:00.000Z",
      "from": "user",
      "content": {"type": "text", "text": "Hola, quiero información"},
      "chat": {"chatId": "CHAT_1", "contactId": 593993575726}
    },
    {
      "id": "MSG_002",
      "creationTime": "2025-11-18T10:01:00.000Z",
      "from": "bot",
      "content": {"type": "image", "url": "https://cdn.example.com/a.png"},
      "chat": {"chatId": "CHAT_1", "contactId": "593993575726"}
    }
  ]
}`

func TestDecodeChatExport(t *testing.T) {
	t.Parallel()

	msgs, err := DecodeChatExport(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "CHAT_1", msgs[0].Chat.ChatID)
	assert.Equal(t, "593993575726", msgs[0].Chat.ContactID.String())
	assert.Equal(t, model.RoleBot, msgs[1].From)
	assert.Equal(t, model.ContentImage, msgs[1].Content.Type)
}

func TestDecodeChatExport_Errors(t *testing.T) {
	t.Parallel()

	_, err := DecodeChatExport(strings.NewReader(`{"messages": []}`))
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = DecodeChatExport(strings.NewReader(`{"items": null}`))
	assert.ErrorIs(t, err, ErrNoItems)

	msgs, err := DecodeChatExport(strings.NewReader(`{"items": []}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = DecodeChatExport(strings.NewReader(`{"items": [`))
	assert.ErrorContains(t, err, "fetcher: decode chat export")
}

func TestReadChatExport_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "chats.JSON", sampleExport)
	msgs, err := ReadChatExport(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestReadChatExport_Docx(t *testing.T) {
	t.Parallel()

	lines := strings.Split(sampleExport, "\n")
	path := writeDocx(t, t.TempDir(), "chats.docx", lines...)

	msgs, err := ReadChatExport(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hola, quiero información", msgs[0].Text())
}

func TestReadChatExport_DocxWithoutItems(t *testing.T) {
	t.Parallel()

	path := writeDocx(t, t.TempDir(), "notes.docx", `{"foo": 1}`)
	_, err := ReadChatExport(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestReadChatExport_Zip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeZIP(t, dir, "export.zip", map[string]string{
		"export/chats.json":            sampleExport,
		"__MACOSX/export/._chats.json": "junk",
	})

	msgs, err := ReadChatExport(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestReadChatExport_Unsupported(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "chats.txt", sampleExport)
	_, err := ReadChatExport(context.Background(), path)
	assert.ErrorContains(t, err, "unsupported chat export format")

	_, err = ReadChatExport(context.Background(), "/nonexistent/chats.json")
	assert.ErrorContains(t, err, "fetcher: open")
}

func TestDocxText(t *testing.T) {
	t.Parallel()

	path := writeDocx(t, t.TempDir(), "doc.docx", "primera línea", "segunda & última")
	text, err := DocxText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "primera línea\nsegunda & última", text)
}
