package ndjson_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mbjorn/econgrab/internal/ndjson"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("round-trips records byte-exactly", func(t *testing.T) {
		t.Parallel()

		records := []string{
			`{"entryNumber":1,"amount":-1234.56,"description":"Café, Københavns"}`,
			`{"zulu":"keeps order","alpha":1}`,
			`{"big":12345678901234567890,"tiny":1e-300}`,
		}

		path := filepath.Join(t.TempDir(), "out.jsonl")

		writer, err := ndjson.Create(path)
		require.NoError(t, err)

		for _, record := range records {
			// Writes carry whatever spacing the server sent; compaction
			// must strip it without touching values or field order.
			spaced := "  " + record[:1] + " " + record[1:]
			require.NoError(t, writer.Write(json.RawMessage(spaced)))
		}

		require.Equal(t, len(records), writer.Count())
		require.NoError(t, writer.Close())

		file, err := os.Open(path)
		require.NoError(t, err)
		defer file.Close() //nolint:errcheck

		scanner := bufio.NewScanner(file)

		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}

		require.NoError(t, scanner.Err())
		require.Equal(t, records, lines)
	})

	t.Run("each line is independently parseable", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.jsonl")

		writer, err := ndjson.Create(path)
		require.NoError(t, err)
		require.NoError(t, writer.Write(json.RawMessage(`{"a": 1}`)))
		require.NoError(t, writer.Write(json.RawMessage(`{"b": 2}`)))
		require.NoError(t, writer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "{\"a\":1}\n{\"b\":2}\n", string(data))
	})

	t.Run("rejects invalid JSON records", func(t *testing.T) {
		t.Parallel()

		writer, err := ndjson.Create(filepath.Join(t.TempDir(), "out.jsonl"))
		require.NoError(t, err)

		defer writer.Close() //nolint:errcheck

		err = writer.Write(json.RawMessage(`{broken`))

		var writeErr *ndjson.WriteError
		require.True(t, errors.As(err, &writeErr))
		require.Equal(t, 0, writer.Count())
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "out.jsonl")

		writer, err := ndjson.Create(path)
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		_, err = os.Stat(path)
		require.NoError(t, err)
	})
}

func TestWriteBinary(t *testing.T) {
	t.Parallel()

	t.Run("writes the payload as a single file", func(t *testing.T) {
		t.Parallel()

		payload := []byte("%PDF-1.7\x00\x01\x02 binary")
		path := filepath.Join(t.TempDir(), "doc.pdf")

		require.NoError(t, ndjson.WriteBinary(path, payload))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, payload, data)
	})

	t.Run("fails with WriteError on an unwritable path", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0o600))

		err := ndjson.WriteBinary(filepath.Join(blocker, "doc.pdf"), []byte("data"))

		var writeErr *ndjson.WriteError
		require.True(t, errors.As(err, &writeErr))
	})
}
