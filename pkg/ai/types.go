package ai

import "context"

// Turn is one chat message exchanged with the model.
type Turn struct {
	Role    string
	Content string
}

// GradeInput contains the artefacts needed to grade one submission.
type GradeInput struct {
	RubricText  string
	EssayText   string
	DocumentURL string
	Handwriting bool
}

// Chatter answers a single free-form chat prompt.
type Chatter interface {
	Chat(ctx context.Context, userInput string) (string, error)
}

// Streamer runs a chat completion over a full turn history, invoking onDelta
// for each streamed fragment, and returns the assembled assistant reply.
type Streamer interface {
	ChatStream(ctx context.Context, history []Turn, onDelta func(fragment string)) (string, error)
}

// Grader produces rubric-based essay feedback in the criteria/score/comments
// text format the feedback parser expects.
type Grader interface {
	Grade(ctx context.Context, input GradeInput) (string, error)
}

// RubricParser turns an uploaded rubric document, referenced by URL, into
// the normalized category/criteria wire shape.
type RubricParser interface {
	ParseRubric(ctx context.Context, documentURL string) ([]byte, error)
}
