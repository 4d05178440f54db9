package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pergi",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI requests",
	}, []string{"operation", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pergi",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of failed AI requests",
	}, []string{"operation", "model"})
)

// Config defines configuration options for the OpenAI client.
type Config struct {
	APIKey      string
	ChatModel   string
	GraderModel string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// Client implements Chatter, Streamer, Grader and RubricParser against the
// OpenAI chat completion API.
type Client struct {
	client *openai.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// New builds a client using the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}

	if cfg.GraderModel == "" {
		cfg.GraderModel = openai.GPT4o
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}

	tracer := otel.Tracer("github.com/tallyrus/pergi-api/pkg/ai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &Client{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger.With().Str("component", "openai_client").Logger(),
	}, nil
}

// Chat answers a single pass-through chat prompt.
func (c *Client) Chat(parent context.Context, userInput string) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai.chat", trace.WithAttributes(
		attribute.String("model", c.cfg.ChatModel),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: userInput},
		},
	})
	aiDuration.WithLabelValues("chat", c.cfg.ChatModel).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("chat", c.cfg.ChatModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues("chat", c.cfg.ChatModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ChatStream runs a streamed completion over the turn history, invoking
// onDelta per fragment, and returns the assembled assistant reply.
func (c *Client) ChatStream(parent context.Context, history []Turn, onDelta func(fragment string)) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai.chat_stream", trace.WithAttributes(
		attribute.String("model", c.cfg.ChatModel),
		attribute.Int("history_turns", len(history)),
	))
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	start := time.Now()
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		Temperature: c.cfg.Temperature,
		Messages:    messages,
		Stream:      true,
	})
	if err != nil {
		aiFailures.WithLabelValues("chat_stream", c.cfg.ChatModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai chat stream: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			aiFailures.WithLabelValues("chat_stream", c.cfg.ChatModel).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", fmt.Errorf("openai chat stream recv: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		fragment := chunk.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}
		builder.WriteString(fragment)
		if onDelta != nil {
			onDelta(fragment)
		}
	}

	aiDuration.WithLabelValues("chat_stream", c.cfg.ChatModel).Observe(time.Since(start).Seconds())
	return builder.String(), nil
}

// Grade asks the grader model for rubric-based essay feedback. Handwritten
// or binary documents are passed to the model by URL as image content;
// extracted text is sent inline.
func (c *Client) Grade(parent context.Context, input GradeInput) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", c.cfg.GraderModel),
		attribute.Bool("handwriting", input.Handwriting),
	))
	defer span.End()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: graderSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: input.RubricText},
	}

	if input.EssayText != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: input.EssayText,
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "Grade the essay in the attached document."},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: input.DocumentURL}},
			},
		})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.cfg.GraderModel,
		MaxTokens: c.cfg.MaxTokens,
		Messages:  messages,
	})
	aiDuration.WithLabelValues("grade", c.cfg.GraderModel).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("grade", c.cfg.GraderModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues("grade", c.cfg.GraderModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return resp.Choices[0].Message.Content, nil
}

// ParseRubric reads an uploaded rubric document by URL and returns the
// normalized rubric JSON array raw.
func (c *Client) ParseRubric(parent context.Context, documentURL string) ([]byte, error) {
	ctx, span := c.tracer.Start(parent, "openai.parse_rubric", trace.WithAttributes(
		attribute.String("model", c.cfg.GraderModel),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.cfg.GraderModel,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rubricParserSystemPrompt()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Extract the rubric from the attached document."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: documentURL}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	aiDuration.WithLabelValues("parse_rubric", c.cfg.GraderModel).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues("parse_rubric", c.cfg.GraderModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("openai parse rubric: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues("parse_rubric", c.cfg.GraderModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var envelope struct {
		Rubric json.RawMessage `json:"rubric"`
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		aiFailures.WithLabelValues("parse_rubric", c.cfg.GraderModel).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parse rubric json: %w", err)
	}
	if len(envelope.Rubric) == 0 {
		return nil, fmt.Errorf("rubric missing from parser response")
	}

	return envelope.Rubric, nil
}

func graderSystemPrompt() string {
	return `You are a Grader for essays. You will read the given essay and then, based on the rubric below, give in-depth feedback on each criteria and a score for each criteria, then the total score.
Give in-depth paragraphs of feedback, comments and suggestions on each criteria: what was done well, what could be improved, and tips with examples on how it can be rewritten or rephrased.

Format each grading entry exactly as:

"""
**Criteria Name**: **Name of the Criteria**

**Score**: **(score)/subtotal**

**Comments/suggestions**: The comments and suggestions you have based on the rubric and the writing.
"""

Also give the total score at the end in this format:

***TOTALSCORE***: ***(score)/total***

Do not grade too harshly. Scores may fall between two listed achievement levels when deserved.`
}

func rubricParserSystemPrompt() string {
	return `You convert grading rubric documents into JSON. Respond with a JSON object of the form {"rubric": [{"name": string, "values": [{"point": number, "description": string}]}]}. Preserve the category order of the document and include every achievement level as one entry in "values".`
}
