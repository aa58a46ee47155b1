package domain

import (
	"encoding/json"
	"fmt"
)

type Context string

const (
	ContextCalendar Context = "calendar"
	ContextTodo     Context = "todo"
)

func ParseContext(s string) (Context, error) {
	switch Context(s) {
	case ContextCalendar, ContextTodo:
		return Context(s), nil
	default:
		return "", fmt.Errorf("unknown context %q", s)
	}
}

// Extraction is the structured result of parsing a transcript. Only the list
// matching Context is serialized.
type Extraction struct {
	Context Context
	Events  []Event
	Tasks   []Task
}

func (e Extraction) MarshalJSON() ([]byte, error) {
	if e.Context == ContextCalendar {
		events := e.Events
		if events == nil {
			events = []Event{}
		}
		return json.Marshal(struct {
			Events []Event `json:"events"`
		}{events})
	}

	tasks := e.Tasks
	if tasks == nil {
		tasks = []Task{}
	}
	return json.Marshal(struct {
		Tasks []Task `json:"tasks"`
	}{tasks})
}
