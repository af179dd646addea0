package collaborator

import (
	"context"
	"sync"
)

// LazyTranscriber defers constructing the real Transcriber until the first
// Transcribe call, and reuses it for the lifetime of the process (§9
// "Single-process singletons (ASR model, LLM client) are lazy" — only the
// worker binary that actually handles a TRANSCRIBE delivery should pay to
// load the model).
type LazyTranscriber struct {
	New func() (Transcriber, error)

	once sync.Once
	inst Transcriber
	err  error
}

func (l *LazyTranscriber) Transcribe(ctx context.Context, filePath string) (Transcript, error) {
	l.once.Do(func() { l.inst, l.err = l.New() })
	if l.err != nil {
		return Transcript{}, l.err
	}
	return l.inst.Transcribe(ctx, filePath)
}

// LazyLLM is LazyTranscriber's counterpart for the LLM collaborator.
type LazyLLM struct {
	New func() (LLM, error)

	once sync.Once
	inst LLM
	err  error
}

func (l *LazyLLM) Generate(ctx context.Context, prompt string) (LLMResult, error) {
	l.once.Do(func() { l.inst, l.err = l.New() })
	if l.err != nil {
		return LLMResult{}, l.err
	}
	return l.inst.Generate(ctx, prompt)
}
