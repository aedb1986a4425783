package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// State is the in-memory conversation buffer for one logical session: an
// optional system prompt plus an ordered, append-only message log. A State is
// owned by exactly one session at a time; callers that share a token must
// serialize access themselves (see the session stores in this package).
type State struct {
	systemPrompt *string
	messages     []models.Message
}

// statePayload is the wire shape of a serialized State. The system prompt is
// a pointer so that "no prompt" survives a round trip as JSON null instead of
// collapsing to an empty string.
type statePayload struct {
	SystemPrompt *string          `json:"system_prompt"`
	Messages     []models.Message `json:"messages"`
}

// NewState returns an empty conversation buffer.
func NewState() *State {
	return &State{messages: []models.Message{}}
}

// SetSystemPrompt installs or clears the system prompt. Passing nil clears it.
func (s *State) SetSystemPrompt(prompt *string) {
	if prompt == nil {
		s.systemPrompt = nil
		return
	}
	p := *prompt
	s.systemPrompt = &p
}

// SystemPrompt returns a copy of the current system prompt, or nil.
func (s *State) SystemPrompt() *string {
	if s.systemPrompt == nil {
		return nil
	}
	p := *s.systemPrompt
	return &p
}

// AppendUserMessage appends a user turn. Blank text is rejected before any
// mutation.
func (s *State) AppendUserMessage(text string) error {
	return s.append(models.RoleUser, text)
}

// AppendAssistantMessage appends an assistant turn. Blank text is rejected
// before any mutation.
func (s *State) AppendAssistantMessage(text string) error {
	return s.append(models.RoleAssistant, text)
}

func (s *State) append(role models.Role, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: message text must not be blank", models.ErrInvalidInput)
	}
	s.messages = append(s.messages, models.Message{Role: role, Content: text})
	return nil
}

// Clear drops all messages and the system prompt.
func (s *State) Clear() {
	s.systemPrompt = nil
	s.messages = s.messages[:0]
}

// MessageCount returns the number of appended messages.
func (s *State) MessageCount() int {
	return len(s.messages)
}

// IsEmpty reports whether no messages have been appended.
func (s *State) IsEmpty() bool {
	return len(s.messages) == 0
}

// CountByRole returns the number of messages with the given role.
func (s *State) CountByRole(role models.Role) int {
	n := 0
	for _, m := range s.messages {
		if m.Role == role {
			n++
		}
	}
	return n
}

// Snapshot returns a defensive copy of the message log. Mutating the returned
// slice never affects the internal storage.
func (s *State) Snapshot() []models.Message {
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clone returns a deep copy sharing no storage with the receiver.
func (s *State) Clone() *State {
	clone := &State{messages: s.Snapshot()}
	clone.SetSystemPrompt(s.systemPrompt)
	return clone
}

// Serialize encodes the state as JSON. Deserialize(Serialize(s)) reproduces s
// exactly, including Unicode content and a nil system prompt.
func (s *State) Serialize() (string, error) {
	payload := statePayload{
		SystemPrompt: s.systemPrompt,
		Messages:     s.messages,
	}
	if payload.Messages == nil {
		payload.Messages = []models.Message{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize conversation state: %w", err)
	}
	return string(data), nil
}

// Deserialize decodes a serialized State. Empty or structurally invalid input
// fails with models.ErrCorruptSaveData.
func Deserialize(text string) (*State, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty payload", models.ErrCorruptSaveData)
	}
	var payload statePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptSaveData, err)
	}
	if payload.Messages == nil {
		return nil, fmt.Errorf("%w: missing messages field", models.ErrCorruptSaveData)
	}
	for i, m := range payload.Messages {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: message %d has unknown role %q", models.ErrCorruptSaveData, i, m.Role)
		}
	}
	st := &State{messages: payload.Messages}
	st.SetSystemPrompt(payload.SystemPrompt)
	return st, nil
}
