package llm

import (
	"context"
	"errors"
	"testing"

	"doc-compliance-checker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_DefaultsFollowFindings(t *testing.T) {
	m := &MockClient{}
	ctx := context.Background()

	clean, err := m.GenerateJSON(ctx, "grammar errors: []")
	require.NoError(t, err)
	assert.Contains(t, clean, `"Compliant"`)

	dirty, err := m.GenerateJSON(ctx, `grammar errors: [{"ruleId":"HE_VERB_AGR"}]`)
	require.NoError(t, err)
	assert.Contains(t, dirty, `"Non-Compliant"`)

	assert.Len(t, m.JSONPrompts(), 2)
}

func TestMockClient_Overrides(t *testing.T) {
	boom := errors.New("boom")
	m := &MockClient{
		TextFunc: func(prompt string) (string, error) { return "", boom },
	}

	_, err := m.GenerateText(context.Background(), "rewrite")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"rewrite"}, m.TextPrompts())
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	c, err := NewFromConfig(ctx, config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	_, err = NewFromConfig(ctx, config.LLMConfig{Provider: "openai"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, err = NewFromConfig(ctx, config.LLMConfig{Provider: "gemini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	_, err = NewFromConfig(ctx, config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)

	oc, err := NewFromConfig(ctx, config.LLMConfig{Provider: "openai", OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, defaultOpenAIModel, oc.(*OpenAIClient).model)
}
