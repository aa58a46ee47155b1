package llm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-relay/internal/domain"
	"voice-relay/internal/infra/llm"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"tasks":[]}`, llm.StripCodeFences("```json\n{\"tasks\":[]}\n```"))
	assert.Equal(t, `{"tasks":[]}`, llm.StripCodeFences("```{\"tasks\":[]}```"))
	assert.Equal(t, `{"tasks":[]}`, llm.StripCodeFences("  {\"tasks\":[]}  "))
}

func TestDecodeExtraction_Tasks(t *testing.T) {
	got, err := llm.DecodeExtraction(domain.ContextTodo,
		`{"tasks":[{"title":"Pay rent","priority":"urgent"},{"title":"","priority":"high"},{"title":"Read","priority":"low","notes":"sci-fi"}]}`)
	require.NoError(t, err)

	assert.Equal(t, []domain.Task{
		{Title: "Pay rent", Priority: domain.PriorityMedium},
		{Title: "Read", Priority: domain.PriorityLow, Notes: "sci-fi"},
	}, got.Tasks)
	assert.Nil(t, got.Events)
}

func TestDecodeExtraction_Events(t *testing.T) {
	got, err := llm.DecodeExtraction(domain.ContextCalendar,
		`{"events":[{"title":"Standup","date":"2026-10-20","time":"10:00","notes":"zoom"}],"tasks":[{"title":"ignored"}]}`)
	require.NoError(t, err)

	require.Len(t, got.Events, 1)
	assert.Equal(t, "Standup", got.Events[0].Title)
	assert.Equal(t, "10:00", *got.Events[0].Time)
	assert.Nil(t, got.Tasks)
}

func TestDecodeExtraction_Invalid(t *testing.T) {
	_, err := llm.DecodeExtraction(domain.ContextTodo, "not json")
	assert.ErrorContains(t, err, "decoding model JSON (not json)")
}

func TestSystemPrompt(t *testing.T) {
	today := time.Date(2026, 10, 23, 12, 0, 0, 0, time.UTC)

	cal := llm.SystemPrompt(domain.ContextCalendar, "", today)
	assert.Contains(t, cal, "calendar assistant for Rahman. Today is Friday, 2026-10-23.")
	assert.Contains(t, cal, `"time": "HH:MM" or null`)

	todo := llm.SystemPrompt(domain.ContextTodo, "Sam", today)
	assert.Contains(t, todo, "to-do list assistant for Sam.")
	assert.NotContains(t, todo, "2026-10-23")
}
