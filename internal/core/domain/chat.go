package domain

// ChatRole is the author of a chat message.
type ChatRole string

// Chat roles understood by the completion adapters.
const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single conversation turn.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// FinishReason explains why a completion stopped.
type FinishReason string

// Finish reasons reported by the completion adapters.
const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishOther  FinishReason = "other"
)

// Completion limits.
const (
	DefaultMaxTokens   = 4096
	MaxTokensCeiling   = 16384
	DefaultMaxSegments = 3
	ContinuePrompt     = "Please continue."
)

// ChatRequest is a retrieval-augmented completion request.
type ChatRequest struct {
	Messages               []ChatMessage    `json:"messages"`
	UseRAG                 *bool            `json:"useRag,omitempty"`
	AdditionalInstructions string           `json:"systemPrompt,omitempty"`
	PolicyText             string           `json:"policyText,omitempty"`
	Policies               []PolicyDocument `json:"policies,omitempty"`
	MaxTokens              int              `json:"maxTokens,omitempty"`
	AutoContinue           *bool            `json:"autoContinue,omitempty"`
}

// RAGEnabled reports whether retrieval should run; it defaults to true.
func (r ChatRequest) RAGEnabled() bool {
	return r.UseRAG == nil || *r.UseRAG
}

// AutoContinueEnabled reports whether length-truncated answers are continued.
func (r ChatRequest) AutoContinueEnabled() bool {
	return r.AutoContinue == nil || *r.AutoContinue
}

// ClampMaxTokens bounds n to 1..MaxTokensCeiling, using the default for n <= 0.
func ClampMaxTokens(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	if n > MaxTokensCeiling {
		return MaxTokensCeiling
	}
	return n
}

// LastUserMessage returns the content of the most recent user turn.
func LastUserMessage(msgs []ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

// ChatResponse is the result of a completed chat request.
type ChatResponse struct {
	Text     string           `json:"text"`
	Chunks   []RetrievedChunk `json:"chunks,omitempty"`
	Segments int              `json:"segments"`
	Finish   FinishReason     `json:"finish"`
}
