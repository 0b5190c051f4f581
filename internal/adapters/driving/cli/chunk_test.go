package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkCmd_FixedWindows(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "wording.txt", strings.Repeat("abcdefghij", 25))

	out, err := execute(t, "chunk", "--size", "100", "--overlap", "0", "--json", path)

	require.NoError(t, err)
	var chunks []chunkOutput
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 3)
	assert.Equal(t, 100, chunks[0].Chars)
	assert.Equal(t, 50, chunks[2].Chars)
	assert.Equal(t, 2, chunks[2].Ordinal)
	assert.Empty(t, chunks[0].ID)
}

func TestChunkCmd_PolicyPiecesConcatenate(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "wording.txt", strings.Repeat("Storm damage is covered. ", 600))
	extracted := getExtractor().ExtractFile(context.Background(), path, "", 0)
	require.True(t, extracted.OK)

	out, err := execute(t, "chunk", "--json", path)

	require.NoError(t, err)
	var chunks []chunkOutput
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 3)
	assert.Equal(t, 6000, chunks[0].Chars)
	assert.Equal(t, 6000, chunks[1].Chars)

	var joined strings.Builder
	for _, c := range chunks {
		joined.WriteString(c.Text)
	}
	assert.Equal(t, extracted.Text, joined.String())
}

func TestChunkCmd_Adhoc(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "wording.txt", strings.Repeat("x", 1500))

	out, err := execute(t, "chunk", "--adhoc", "--json", path)

	require.NoError(t, err)
	var chunks []chunkOutput
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 2)
	assert.Equal(t, 1000, chunks[0].Chars)
	assert.Equal(t, 700, chunks[1].Chars)
}

func TestChunkCmd_StreamingHasIDs(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "wording.txt", policyWording)

	out, err := execute(t, "chunk", "--streaming", "--json", path)

	require.NoError(t, err)
	var chunks []chunkOutput
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.NotEmpty(t, chunks)
	assert.NotEmpty(t, chunks[0].ID)
}

func TestChunkCmd_TextOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeFile(t, t.TempDir(), "wording.txt", policyWording)

	out, err := execute(t, "chunk", path)

	require.NoError(t, err)
	assert.Contains(t, out, "1 chunks from")
	assert.Contains(t, out, "#0")
}

func TestChunkCmd_OverlapDefault(t *testing.T) {
	flag := chunkCmd.Flags().Lookup("overlap")
	require.NotNil(t, flag)
	assert.Equal(t, "-1", flag.DefValue)
}
