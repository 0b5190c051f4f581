package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

func TestChatCmd_StreamsAnswerAndSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testMocks.chat.answer = "Yes, storm damage is covered [1]."
	testMocks.chat.response = domain.ChatResponse{
		Chunks:   sampleRetrieval().Chunks,
		Segments: 1,
		Finish:   domain.FinishStop,
	}

	out, err := execute(t, "chat", "is", "storm", "covered?")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Yes, storm damage is covered [1].\n"))
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1] Home guide")
	assert.Contains(t, out, "[2] kb/flood.md")
	assert.NotContains(t, out, "truncated")
	assert.Equal(t, "is storm covered?", domain.LastUserMessage(testMocks.chat.request.Messages))
}

func TestChatCmd_TruncatedNote(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testMocks.chat.answer = "Partial"
	testMocks.chat.response = domain.ChatResponse{Finish: domain.FinishLength}

	out, err := execute(t, "chat", "--no-continue", "--max-tokens", "100", "question")

	require.NoError(t, err)
	assert.Contains(t, out, "truncated at the token limit")
	req := testMocks.chat.request
	assert.False(t, req.AutoContinueEnabled())
	assert.Equal(t, 100, req.MaxTokens)
}

func TestChatCmd_ReadsStdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testMocks.chat.answer = "ok"
	rootCmd.SetIn(strings.NewReader("  What is an excess?\n"))

	_, err := execute(t, "chat")

	require.NoError(t, err)
	assert.Equal(t, "What is an excess?", domain.LastUserMessage(testMocks.chat.request.Messages))
}

func TestChatCmd_EmptyStdin(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("   "))

	_, err := execute(t, "chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no message given")
}

func TestChatCmd_History(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	history := writeFile(t, t.TempDir(), "history.json",
		`[{"role":"user","content":"Hi"},{"role":"assistant","content":"Hello, how can I help?"}]`)

	_, err := execute(t, "chat", "--history", history, "Am I covered?")

	require.NoError(t, err)
	msgs := testMocks.chat.request.Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "Am I covered?"}, msgs[2])
}

func TestChatCmd_InvalidHistory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	history := writeFile(t, t.TempDir(), "history.json", `{not json`)

	_, err := execute(t, "chat", "--history", history, "question")

	assert.Error(t, err)
}

func TestChatCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testMocks.chat.err = domain.ErrLLMUnavailable

	_, err := execute(t, "chat", "question")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestChatCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testMocks.chat.answer = "Covered."
	testMocks.chat.response = domain.ChatResponse{Segments: 1, Finish: domain.FinishStop}

	out, err := execute(t, "chat", "--json", "question")

	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"Covered.","segments":1,"finish":"stop"}`, out)
}
