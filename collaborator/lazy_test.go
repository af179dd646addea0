package collaborator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLazyTranscriberConstructsOnce(t *testing.T) {
	var constructed int32
	lazy := &LazyTranscriber{
		New: func() (Transcriber, error) {
			atomic.AddInt32(&constructed, 1)
			return StubTranscriber{TranscribeFn: func(ctx context.Context, filePath string) (Transcript, error) {
				return Transcript{Text: filePath}, nil
			}}, nil
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lazy.Transcribe(context.Background(), "file.mp4")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&constructed))
}

func TestLazyLLMConstructsOnce(t *testing.T) {
	var constructed int32
	lazy := &LazyLLM{
		New: func() (LLM, error) {
			atomic.AddInt32(&constructed, 1)
			return StubLLM{GenerateFn: func(ctx context.Context, prompt string) (LLMResult, error) {
				return LLMResult{Text: prompt}, nil
			}}, nil
		},
	}

	_, err := lazy.Generate(context.Background(), "a")
	require.NoError(t, err)
	_, err = lazy.Generate(context.Background(), "b")
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&constructed))
}
