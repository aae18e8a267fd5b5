package writer

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleWriter(t *testing.T) {
	tests := []struct {
		name    string
		options *ConsoleWriterOptions
		want    *os.File
		wantErr bool
	}{
		{name: "nil options", options: nil, want: os.Stdout},
		{name: "stdout", options: &ConsoleWriterOptions{Target: "stdout"}, want: os.Stdout},
		{name: "stderr", options: &ConsoleWriterOptions{Target: "stderr"}, want: os.Stderr},
		{name: "unknown target", options: &ConsoleWriterOptions{Target: "tty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewConsoleWriterWithOptions(tt.options)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, w)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.w)
			assert.NoError(t, w.Close())
		})
	}
}

func TestFileWriter(t *testing.T) {
	_, err := NewFileWriterWithOptions(nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "logs", "uid.log")
	w, err := NewFileWriterWithOptions(&FileWriterOptions{Path: path})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Write([]byte("line\n"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50, len(data))
}
