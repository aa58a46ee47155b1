// Package llm holds the prompts and response decoding shared by the
// language-model extraction providers.
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"voice-relay/internal/domain"
)

const (
	Temperature = 0.2
	MaxTokens   = 500

	DefaultUserName = "Rahman"
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*")

// SystemPrompt returns the extraction instructions for c. Calendar prompts
// embed today's weekday and date so the model can resolve "tomorrow".
func SystemPrompt(c domain.Context, userName string, today time.Time) string {
	if userName == "" {
		userName = DefaultUserName
	}
	if c == domain.ContextCalendar {
		return fmt.Sprintf(calendarPrompt, userName, today.Weekday(), today.Format("2006-01-02"))
	}
	return fmt.Sprintf(todoPrompt, userName)
}

type parsedEvent struct {
	Title string  `json:"title"`
	Date  string  `json:"date"`
	Time  *string `json:"time"`
	Notes string  `json:"notes"`
}

type parsedTask struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Notes    string `json:"notes"`
}

type parsedResponse struct {
	Events []parsedEvent `json:"events"`
	Tasks  []parsedTask  `json:"tasks"`
}

// DecodeExtraction parses model output for context c, tolerating markdown
// code fences. Entries without a title are dropped and task priorities are
// normalized.
func DecodeExtraction(c domain.Context, content string) (*domain.Extraction, error) {
	content = StripCodeFences(content)

	var parsed parsedResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decoding model JSON (%s): %w", content, err)
	}

	out := &domain.Extraction{Context: c}

	switch c {
	case domain.ContextCalendar:
		out.Events = make([]domain.Event, 0, len(parsed.Events))
		for _, ev := range parsed.Events {
			if strings.TrimSpace(ev.Title) == "" {
				continue
			}
			out.Events = append(out.Events, domain.Event{
				Title: ev.Title,
				Date:  ev.Date,
				Time:  ev.Time,
				Notes: ev.Notes,
			})
		}
	default:
		out.Tasks = make([]domain.Task, 0, len(parsed.Tasks))
		for _, t := range parsed.Tasks {
			if strings.TrimSpace(t.Title) == "" {
				continue
			}
			out.Tasks = append(out.Tasks, domain.Task{
				Title:    t.Title,
				Priority: domain.NormalizePriority(t.Priority),
				Notes:    t.Notes,
			})
		}
	}

	return out, nil
}

func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "```") {
		s = strings.TrimSpace(codeFence.ReplaceAllString(s, ""))
	}
	return s
}
