package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
)

type scriptedQA struct {
	asked []string
}

func (s *scriptedQA) Ask(_ context.Context, q string) (*domain.Answer, error) {
	s.asked = append(s.asked, q)
	if strings.Contains(q, "swallow") {
		return &domain.Answer{Query: q, Text: "Not found in source.", Fallback: true}, nil
	}
	if strings.Contains(q, "boom") {
		return nil, domain.ErrGeneration
	}
	return &domain.Answer{Query: q, Text: "Paris"}, nil
}

func TestREPL_StopsOnExit(t *testing.T) {
	qa := &scriptedQA{}
	in := strings.NewReader("capital of France?\n\nboom\nunladen swallow?\nEXIT\nnever asked\n")
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), qa, in, &out, time.Second))
	assert.Equal(t, []string{"capital of France?", "boom", "unladen swallow?"}, qa.asked)
	s := out.String()
	assert.Contains(t, s, "Answer:\nParis")
	assert.Contains(t, s, "Error: generation failed")
	assert.Contains(t, s, "No answer found in the corpus.")
	assert.Contains(t, s, "Session ended.")
}

func TestREPL_EndOfInput(t *testing.T) {
	qa := &scriptedQA{}
	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), qa, strings.NewReader("quit"), &out, time.Second))
	assert.Empty(t, qa.asked)
	require.NoError(t, repl(context.Background(), qa, strings.NewReader(""), &out, time.Second))
}

func TestPrintAnswer_Sources(t *testing.T) {
	var out bytes.Buffer
	printAnswer(&out, &domain.Answer{
		Text: "Paris",
		Sources: []domain.SearchResult{
			{Chunk: domain.Chunk{ChunkID: "p0:0", Text: "Paris is the capital of France."}, Score: 0.5},
		},
	}, true)
	assert.Contains(t, out.String(), "[1] p0:0 score=0.500\nParis is the capital of France.")
}
