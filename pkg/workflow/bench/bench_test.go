package bench_test

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telatin/Koverage/pkg/workflow/bench"
)

func TestRecordWrite(t *testing.T) {
	t.Parallel()

	rec := bench.Record{
		Task:     "map.S1",
		Wall:     90 * time.Second,
		CPU:      30 * time.Second,
		MaxRSSKB: 2048,
	}

	var buf bytes.Buffer
	require.NoError(t, rec.Write(&buf))

	assert.Equal(t, "s\th:m:s\tcpu_s\tmax_rss_kb\n90.0000\t0:01:30\t30.0000\t2048\n", buf.String())
}

func TestRecordWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "S1.map.txt")
	rec := bench.Record{Task: "map.S1", Wall: time.Second, MaxRSSKB: -1}
	require.NoError(t, rec.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "h:m:s")
	assert.Contains(t, string(data), "-1")
}

func TestRecorderConcurrent(t *testing.T) {
	t.Parallel()

	recorder := bench.NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recorder.Add(bench.Record{Task: string(rune('a' + i)), Wall: time.Duration(i)})
		}(i)
	}
	wg.Wait()

	rec, ok := recorder.Get("b")
	require.True(t, ok)
	assert.Equal(t, time.Duration(1), rec.Wall)
}
