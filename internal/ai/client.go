package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/hray3182/pagecal/internal/recurrence"
	"github.com/hray3182/pagecal/internal/rrule"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Suggestion is a date property proposed from free text. Schedule is the
// validated form of Value.
type Suggestion struct {
	Title    string               `json:"title"`
	Value    recurrence.DateValue `json:"value"`
	Schedule recurrence.Schedule  `json:"-"`
	Summary  string               `json:"summary"`
}

const systemPromptTemplate = `You turn a short description of a task or event into a structured schedule.

Today is %s.

Rules:
1. Resolve relative dates ("tomorrow", "next Monday", "in two weeks") against today and write them as YYYY-MM-DD.
2. Times are HH:MM on a 24-hour clock. Leave them null for all-day items.
3. Set repetition to true only when the text describes something that repeats.
4. repetition_type is one of daily, weekly, monthly. Use weekly with interval 2 for "every other week".
5. days_of_week uses 0=Sunday through 6=Saturday. Fill it for weekly rules only.
6. day_of_month is 1-31 and is used for monthly rules only.
7. repeat_until is the last day the rule may fire, or null when it never ends.
8. If the text names no start date, start today.
9. title is the thing being scheduled, without the timing words.`

// JSON Schema for structured output
var repetitionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"start_date": {"type": "string", "description": "YYYY-MM-DD"},
		"end_date": {"type": ["string", "null"], "description": "Last day of a multi-day, non-repeating item"},
		"start_time": {"type": ["string", "null"], "description": "HH:MM"},
		"end_time": {"type": ["string", "null"], "description": "HH:MM"},
		"repetition": {"type": "boolean"},
		"repetition_type": {"type": ["string", "null"], "enum": ["daily", "weekly", "monthly", null]},
		"interval": {"type": ["integer", "null"], "minimum": 1},
		"days_of_week": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 6}},
		"day_of_month": {"type": ["integer", "null"], "minimum": 1, "maximum": 31},
		"repeat_until": {"type": ["string", "null"], "description": "YYYY-MM-DD"}
	},
	"required": ["title", "start_date", "end_date", "start_time", "end_time", "repetition",
		"repetition_type", "interval", "days_of_week", "day_of_month", "repeat_until"],
	"additionalProperties": false
}`)

type reply struct {
	Title          string  `json:"title"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	Repetition     bool    `json:"repetition"`
	RepetitionType *string `json:"repetition_type"`
	Interval       *int    `json:"interval"`
	DaysOfWeek     []int   `json:"days_of_week"`
	DayOfMonth     *int    `json:"day_of_month"`
	RepeatUntil    *string `json:"repeat_until"`
}

// ParseRepetition asks the model to describe text as a date property and
// validates the answer. A *recurrence.ValidationError is returned when the
// model's answer does not form a valid rule.
func (c *Client) ParseRepetition(ctx context.Context, text string, today recurrence.Date) (*Suggestion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(today),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "date_property",
				Schema: repetitionSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	return decodeSuggestion(resp.Choices[0].Message.Content)
}

func systemPrompt(today recurrence.Date) string {
	return fmt.Sprintf(systemPromptTemplate, today.Time().Format("2006-01-02 (Monday)"))
}

func decodeSuggestion(content string) (*Suggestion, error) {
	var r reply
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &r); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	value := r.dateValue()
	schedule, err := recurrence.ParseSchedule(value)
	if err != nil {
		return nil, err
	}

	return &Suggestion{
		Title:    strings.TrimSpace(r.Title),
		Value:    recurrence.Canonical(schedule),
		Schedule: schedule,
		Summary:  summarize(schedule),
	}, nil
}

func (r reply) dateValue() recurrence.DateValue {
	v := recurrence.DateValue{
		StartDate:  r.StartDate,
		EndDate:    deref(r.EndDate),
		StartTime:  deref(r.StartTime),
		EndTime:    deref(r.EndTime),
		Repetition: r.Repetition,
	}
	if !r.Repetition {
		return v
	}

	v.EndDate = ""
	v.RepetitionType = deref(r.RepetitionType)
	cfg := &recurrence.RepetitionConfig{
		DaysOfWeek: r.DaysOfWeek,
		EndDate:    deref(r.RepeatUntil),
	}
	if r.Interval != nil {
		cfg.Interval = recurrence.IntValue(*r.Interval)
	}
	if r.DayOfMonth != nil {
		cfg.DayOfMonth = recurrence.IntValue(*r.DayOfMonth)
	}
	v.RepetitionConfig = cfg
	return v
}

func summarize(s recurrence.Schedule) string {
	switch v := s.(type) {
	case recurrence.Rule:
		return rrule.Describe(v)
	case recurrence.Span:
		if v.Start == v.End {
			return v.Start.String()
		}
		return v.Start.String() + " to " + v.End.String()
	}
	return ""
}

// stripCodeFence removes a ```json fence some models wrap around JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
