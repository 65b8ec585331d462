package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-classifier/internal/config"
	"github.com/sells-group/lead-classifier/pkg/notion"
	sfpkg "github.com/sells-group/lead-classifier/pkg/salesforce"
)

// chatExport holds three chats: c1 is never answered, c2 asks to pay and
// c3 only says hello.
const chatExport = `{"items": [
	{"id": "1", "creationTime": "2025-02-10T10:00:00Z", "from": "bot", "content": {"type": "text", "text": "Hola"}, "chat": {"chatId": "c1", "contactId": "0991112222"}},
	{"id": "2", "creationTime": "2025-02-14T18:00:00Z", "from": "bot", "content": {"type": "text", "text": "Hola"}, "chat": {"chatId": "c2", "contactId": 593993575726}},
	{"id": "3", "creationTime": "2025-02-14T18:01:00Z", "from": "user", "content": {"type": "text", "text": "me interesa mejorar mi perfil profesional"}, "chat": {"chatId": "c2", "contactId": 593993575726}},
	{"id": "4", "creationTime": "2025-02-14T18:05:00Z", "from": "user", "content": {"type": "text", "text": "voy a pagar"}, "chat": {"chatId": "c2", "contactId": 593993575726}},
	{"id": "5", "creationTime": "2025-02-11T10:00:00Z", "from": "bot", "content": {"type": "text", "text": "Hola"}, "chat": {"chatId": "c3", "contactId": "0990000000"}},
	{"id": "6", "creationTime": "2025-02-11T11:00:00Z", "from": "user", "content": {"type": "text", "text": "hola, info"}, "chat": {"chatId": "c3", "contactId": "0990000000"}}
]}`

const attributionCSV = "TELWHATSAPP,Fecha Insert Lead,UTM Source\n593993575726,2025-02-14,google\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// workDir switches to a temp dir with a quiet config.yaml and restores the
// global config afterwards.
func workDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "log:\n  level: error\n  format: console\n")
	t.Chdir(dir)

	oldCfg := cfg
	t.Cleanup(func() { cfg = oldCfg })
	return dir
}

func resetFlags(cmd *cobra.Command) {
	for _, c := range append(cmd.Commands(), cmd) {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

// runCommand executes the root command with args and returns stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	classifyChats, classifyAttribution, classifySalesforceSince = "", "", ""
	classifyOutput, classifyFormat, classifyRules = "", "", ""
	classifyWorkers, classifyTiers = 1, nil
	classifyPushNotion, classifyWriteBack = false, false
	servePort = 0
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// stubClients replaces the Salesforce and Notion constructors for one test.
func stubClients(t *testing.T, sf sfpkg.Client, nc notion.Client) {
	t.Helper()
	oldSF, oldNotion := newSalesforceClient, newNotionClient
	newSalesforceClient = func(*config.Config) (sfpkg.Client, error) { return sf, nil }
	newNotionClient = func(*config.Config) (notion.Client, error) { return nc, nil }
	t.Cleanup(func() {
		newSalesforceClient, newNotionClient = oldSF, oldNotion
	})
}
