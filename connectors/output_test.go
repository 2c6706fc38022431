package connectors

import (
	"os"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shoveler "github.com/dbarchive/myisam-shoveler"
)

func TestFileConnector(t *testing.T) {
	outPath := path.Join(t.TempDir(), "records.jsonl")
	fc, err := NewFileConnector(outPath, nil)
	require.NoError(t, err)

	require.NoError(t, fc.Write([]byte(`{"table":"users"}`)))
	require.NoError(t, fc.Write([]byte(`{"table":"orders"}`)))
	require.NoError(t, fc.Sync())
	require.NoError(t, fc.Close())

	contents, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"table":"users"}`, lines[0])
	assert.Equal(t, `{"table":"orders"}`, lines[1])
}

func TestMultiOutputConnector(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileConnector(path.Join(dir, "a.jsonl"), nil)
	require.NoError(t, err)
	second, err := NewFileConnector(path.Join(dir, "b.jsonl"), nil)
	require.NoError(t, err)

	multi := NewMultiOutputConnector([]OutputConnector{first, second}, nil)
	require.NoError(t, multi.Write([]byte("fanout")))
	require.NoError(t, multi.Close())

	for _, name := range []string{"a.jsonl", "b.jsonl"} {
		contents, err := os.ReadFile(path.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, "fanout\n", string(contents))
	}
}

func TestQueueConnector(t *testing.T) {
	queue := shoveler.NewConfirmationQueue(path.Join(t.TempDir(), "queue"))
	qc := NewQueueConnector(queue)

	require.NoError(t, qc.Write([]byte("queued")))
	msg, err := queue.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, []byte("queued"), msg)

	require.NoError(t, qc.Close())
}
