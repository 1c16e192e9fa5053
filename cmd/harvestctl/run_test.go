package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/models"
)

func TestWriteArtifact(t *testing.T) {
	result := &models.RunResult{
		URLs: []string{"https://a.example/list"},
		Keys: []string{"a_example_2024_01_01__00_00_00_000000"},
		Scrape: &models.ScrapeSummary{Results: []models.ScrapeResult{{
			Key:              "a_example_2024_01_01__00_00_00_000000",
			StructuredFields: json.RawMessage(`{"listings":[{"title":"Loft","price":"$900"}]}`),
		}}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeArtifact(&buf, result, "listings", "csv"))
	assert.Equal(t, "title,price\nLoft,$900\n", buf.String())

	buf.Reset()
	require.NoError(t, writeArtifact(&buf, result, "results", "json"))
	assert.Contains(t, buf.String(), `"unique_name": "a_example_2024_01_01__00_00_00_000000"`)

	assert.Error(t, writeArtifact(&buf, result, "pagination", "json"))
	assert.Error(t, writeArtifact(&buf, result, "everything", "json"))
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["migrate"])
	assert.True(t, names["record"])
}

type closeFailer struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (c *closeFailer) Close() error {
	c.closed = true
	return c.closeErr
}

func TestWriteAndClose(t *testing.T) {
	diskFull := errors.New("no space left on device")

	t.Run("close error surfaces after a clean write", func(t *testing.T) {
		wc := &closeFailer{closeErr: diskFull}
		err := writeAndClose(wc, func(w io.Writer) error {
			_, err := io.WriteString(w, "title\n")
			return err
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, diskFull)
		assert.True(t, wc.closed)
	})

	t.Run("write error wins over close error", func(t *testing.T) {
		wc := &closeFailer{closeErr: diskFull}
		writeErr := errors.New("unknown format")
		err := writeAndClose(wc, func(io.Writer) error { return writeErr })
		assert.ErrorIs(t, err, writeErr)
		assert.True(t, wc.closed)
	})

	t.Run("file on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, writeAndClose(f, func(w io.Writer) error {
			_, err := io.WriteString(w, "title\nLoft\n")
			return err
		}))
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "title\nLoft\n", string(got))
	})
}
