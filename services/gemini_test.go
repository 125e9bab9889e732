package services

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestCleanModelOutput(t *testing.T) {
	assert.Equal(t, "{\"a\":1}", cleanModelOutput("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "Your Honour.", cleanModelOutput("  Your Honour.  "))
	assert.Equal(t, "", cleanModelOutput("```"))
}

func TestResponseTextUsesFirstCandidate(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Objection, "), genai.Text("Your Honour.")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, "Objection, Your Honour.", responseText(resp))
	assert.Equal(t, "", responseText(nil))
}

func TestNewGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "", 0)
	assert.Error(t, err)
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	out, err := g.Generate(context.Background(), "hi")
	assert.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
}
