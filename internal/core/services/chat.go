package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
	"github.com/custodia-labs/policyrag/internal/core/ports/driving"
	"github.com/custodia-labs/policyrag/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// freeTextPolicyName labels policy text pasted directly into a request.
const freeTextPolicyName = "policyText"

// ChatConfig tunes chat completion.
type ChatConfig struct {
	// TopK is the number of knowledge base chunks retrieved per question.
	TopK int

	// MaxSegments caps the completions produced by auto-continue.
	MaxSegments int

	// PolicyLoad controls policy text extraction.
	PolicyLoad domain.PolicyLoadOptions
}

// DefaultChatConfig returns the default chat tuning.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		TopK:        domain.DefaultTopK,
		MaxSegments: domain.DefaultMaxSegments,
		PolicyLoad: domain.PolicyLoadOptions{
			MaxChars:  domain.DefaultPolicyMaxChars,
			MinLength: domain.DefaultPolicyMinLength,
		},
	}
}

// ChatService answers a conversation with retrieved knowledge base context
// and customer policies in the system message.
type ChatService struct {
	llm       driven.LLMService
	retriever driving.RetrieverService
	policies  driving.PolicyService
	assembler driving.AssemblerService
	prompts   driven.PromptStore
	cfg       ChatConfig
}

// NewChatService creates a chat service. llm, retriever, policies and
// prompts may be nil; the corresponding step is then skipped.
func NewChatService(
	llm driven.LLMService,
	retriever driving.RetrieverService,
	policies driving.PolicyService,
	assembler driving.AssemblerService,
	prompts driven.PromptStore,
	cfg ChatConfig,
) *ChatService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.MaxSegments <= 0 {
		cfg.MaxSegments = domain.DefaultMaxSegments
	}
	if assembler == nil {
		assembler = NewAssemblerService(domain.DefaultPolicyChunkSize)
	}
	return &ChatService{
		llm:       llm,
		retriever: retriever,
		policies:  policies,
		assembler: assembler,
		prompts:   prompts,
		cfg:       cfg,
	}
}

// BuildContext assembles the system message for req without calling the LLM.
func (s *ChatService) BuildContext(
	ctx context.Context, req domain.ChatRequest,
) (domain.AssembledContext, domain.RetrievalResult) {
	retrieval := emptyRetrieval()
	if req.RAGEnabled() && s.retriever != nil {
		if q := strings.TrimSpace(domain.LastUserMessage(req.Messages)); q != "" {
			retrieval = s.retriever.RetrieveContext(ctx, q, s.cfg.TopK)
		}
	}

	var policies []domain.PolicyText
	for i := range req.Policies {
		if s.policies == nil {
			break
		}
		policies = append(policies, s.policies.LoadPolicyText(ctx, &req.Policies[i], s.cfg.PolicyLoad))
	}
	if t := strings.TrimSpace(req.PolicyText); t != "" {
		policies = append(policies, domain.PolicyText{Name: freeTextPolicyName, Text: t, OK: true})
	}

	assembled := s.assembler.Assemble(domain.AssemblyInput{
		BaseInstructions:       s.baseInstructions(),
		AdditionalInstructions: req.AdditionalInstructions,
		KnowledgeBase:          retrieval.Context,
		Policies:               policies,
	})
	logger.Debug("Assembled %d sections (%d bytes)", len(assembled.Sections), assembled.Len())

	return assembled, retrieval
}

// Chat streams the answer to w and returns the full response. When the model
// stops for length and auto-continue is on, it is asked to continue up to the
// configured segment limit; segments are separated by a blank line.
func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest, w io.Writer) (domain.ChatResponse, error) {
	if s.llm == nil {
		return domain.ChatResponse{}, domain.ErrLLMUnavailable
	}
	if len(req.Messages) == 0 {
		return domain.ChatResponse{}, fmt.Errorf("%w: no messages", domain.ErrInvalidInput)
	}
	if w == nil {
		w = io.Discard
	}

	logger.Section("Chat")
	assembled, retrieval := s.BuildContext(ctx, req)

	working := make([]domain.ChatMessage, 0, len(req.Messages)+1)
	if system := assembled.String(); system != "" {
		working = append(working, domain.ChatMessage{Role: domain.RoleSystem, Content: system})
	}
	for _, m := range req.Messages {
		working = append(working, normaliseMessage(m))
	}

	opts := driven.ChatOptions{MaxTokens: domain.ClampMaxTokens(req.MaxTokens)}
	resp := domain.ChatResponse{Chunks: retrieval.Chunks}

	var full strings.Builder
	write := func(text string) error {
		full.WriteString(text)
		_, err := io.WriteString(w, text)
		return err
	}

	continued := false
	for {
		var segment strings.Builder
		finish, err := s.llm.StreamChat(ctx, working, opts, func(delta string) error {
			segment.WriteString(delta)
			return write(delta)
		})
		resp.Segments++
		if err != nil {
			resp.Text, resp.Finish = full.String(), domain.FinishOther
			return resp, fmt.Errorf("completion segment %d: %w", resp.Segments, err)
		}
		resp.Finish = finish

		if finish != domain.FinishLength || !req.AutoContinueEnabled() || resp.Segments >= s.cfg.MaxSegments {
			break
		}

		logger.Debug("Completion truncated at segment %d, continuing", resp.Segments)
		continued = true
		if err := write("\n\n"); err != nil {
			return resp, err
		}
		working = append(working,
			domain.ChatMessage{Role: domain.RoleAssistant, Content: segment.String()},
			domain.ChatMessage{Role: domain.RoleUser, Content: domain.ContinuePrompt},
		)
	}

	if continued {
		if err := write("\n"); err != nil {
			return resp, err
		}
	}

	resp.Text = full.String()
	return resp, nil
}

func (s *ChatService) baseInstructions() string {
	if s.prompts == nil {
		return ""
	}
	text, err := s.prompts.Load(driven.PromptBaseInstructions)
	if err != nil {
		logger.Warn("Failed to load base instructions: %v", err)
		return ""
	}
	return text
}

// normaliseMessage maps unknown roles to user.
func normaliseMessage(m domain.ChatMessage) domain.ChatMessage {
	switch m.Role {
	case domain.RoleSystem, domain.RoleUser, domain.RoleAssistant:
		return m
	default:
		return domain.ChatMessage{Role: domain.RoleUser, Content: m.Content}
	}
}
