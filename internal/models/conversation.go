package models

const (
	// RoleUser marks a turn authored by the template owner.
	RoleUser = "user"
	// RoleAssistant marks a turn produced by the AI.
	RoleAssistant = "assistant"
)

// Turn is one entry in a template's conversation transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnList is an append-only, chronologically ordered transcript.
type TurnList []Turn

// Stripped returns a copy limited to role and content. Stored turns may grow
// extra fields over time; only these two are ever sent to the AI backend.
func (l TurnList) Stripped() TurnList {
	stripped := make(TurnList, 0, len(l))
	for _, turn := range l {
		stripped = append(stripped, Turn{Role: turn.Role, Content: turn.Content})
	}
	return stripped
}
