package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAskPrintsRoleSpecificReply(t *testing.T) {
	resolver := intent.NewResolver(intent.Default())

	out, err := execute(t, "ask", "--role", "admin", "admin", "dashboard")
	require.NoError(t, err)
	assert.Equal(t, resolver.Resolve("admin dashboard", role.Admin)+"\n", out)

	out, err = execute(t, "ask", "admin", "dashboard")
	require.NoError(t, err)
	assert.Equal(t, resolver.Resolve("admin dashboard", role.Guest)+"\n", out)
}

func TestAskVerboseNamesFallback(t *testing.T) {
	out, err := execute(t, "ask", "-v", "xyz123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "rule: (fallback)"), out)
}

func TestAskRejectsUnknownRole(t *testing.T) {
	_, err := execute(t, "ask", "--role", "superuser", "hello")
	assert.Error(t, err)
}

func TestRulesListsTableInOrder(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "1. greeting")
	assert.Contains(t, out, "role-conditional: admin")
}

func TestRulesFlagLoadsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "welcome: Hi\nfallback: Sorry\nrules:\n  - name: only\n    keywords: [ping]\n    reply: pong\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := execute(t, "--rules", path, "ask", "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong\n", out)
}

type scriptedReader struct {
	lines []string
}

func (s *scriptedReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestRunChatSession(t *testing.T) {
	table := intent.Default()
	resolver := intent.NewResolver(table)
	in := &scriptedReader{lines: []string{"   ", "how much does it cost", "/toggle", "hello", "/toggle", "/history", "/quit", "never read"}}

	var out bytes.Buffer
	err := runChat(context.Background(), in, &out, table, &chatOptions{role: "rider", page: "dashboard"})
	require.NoError(t, err)

	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "assistant> "+table.Welcome()), "welcome once live, once in /history")
	assert.Contains(t, got, "[not sent: widget is open-idle]")
	assert.Contains(t, got, "assistant> "+resolver.Resolve("how much does it cost", role.Rider))
	assert.Contains(t, got, "[widget closed]")
	assert.Contains(t, got, "[not sent: widget is closed]")
	assert.Contains(t, got, "[widget open-idle]")
	assert.Len(t, in.lines, 1)
}

func TestRunChatUnknownRole(t *testing.T) {
	err := runChat(context.Background(), &scriptedReader{}, io.Discard, intent.Default(), &chatOptions{role: "nobody"})
	assert.Error(t, err)
}
