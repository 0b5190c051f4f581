package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

// Flags shared by the context and chat commands.
type conversationFlags struct {
	manifest     string
	policyFile   string
	instructions string
	noRAG        bool
}

var contextFlags conversationFlags

var contextJSON bool

var contextCmd = &cobra.Command{
	Use:   "context [question]",
	Short: "Show the system message assembled for a question",
	Long: `Builds the system message a chat request would use: base instructions,
additional instructions, retrieved knowledge base context and the customer's
policies. No language model is called.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	addConversationFlags(contextCmd, &contextFlags)
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output sections as JSON")
	rootCmd.AddCommand(contextCmd)
}

func addConversationFlags(cmd *cobra.Command, f *conversationFlags) {
	cmd.Flags().StringVarP(&f.manifest, "manifest", "m", "", "YAML manifest listing policy documents")
	cmd.Flags().StringVar(&f.policyFile, "policy-text", "", "text file with policy wording to include")
	cmd.Flags().StringVar(&f.instructions, "instructions", "", "additional instructions for the assistant")
	cmd.Flags().BoolVar(&f.noRAG, "no-rag", false, "skip knowledge base retrieval")
}

// buildRequest turns the shared flags and the conversation into a request.
func (f *conversationFlags) buildRequest(messages []domain.ChatMessage) (domain.ChatRequest, error) {
	req := domain.ChatRequest{
		Messages:               messages,
		AdditionalInstructions: f.instructions,
	}
	if f.noRAG {
		useRAG := false
		req.UseRAG = &useRAG
	}
	if f.manifest != "" {
		policies, err := loadManifest(f.manifest)
		if err != nil {
			return req, err
		}
		req.Policies = policies
	}
	if f.policyFile != "" {
		text, err := readTextFile(f.policyFile)
		if err != nil {
			return req, err
		}
		req.PolicyText = text
	}
	return req, nil
}

func runContext(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	req, err := contextFlags.buildRequest([]domain.ChatMessage{{Role: domain.RoleUser, Content: question}})
	if err != nil {
		return err
	}

	chat, err := getChat(cmd.Context(), false)
	if err != nil {
		return fmt.Errorf("chat not available: %w", err)
	}

	assembled, retrieval := chat.BuildContext(cmd.Context(), req)

	if contextJSON {
		return printJSON(cmd, struct {
			Sections []domain.Section        `json:"sections"`
			Chunks   []domain.RetrievedChunk `json:"chunks"`
		}{assembled.Sections, retrieval.Chunks})
	}

	for i, s := range assembled.Sections {
		if i > 0 {
			cmd.Println()
		}
		cmd.Println(headingStyle.Render(fmt.Sprintf("## %s (%d chars)", s.Kind, len([]rune(s.Text)))))
		cmd.Println(s.Text)
	}
	return nil
}
