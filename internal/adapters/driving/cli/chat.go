package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

var chatFlags conversationFlags

var (
	chatHistory    string
	chatMaxTokens  int
	chatNoContinue bool
	chatJSON       bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the insurance assistant a question",
	Long: `Answers a question with retrieved knowledge base context and the
customer's policies in the system message. The answer is streamed as it is
generated. When the model stops at the token limit it is asked to continue.

The message is read from standard input when no argument is given.

Examples:
  policyrag chat "Does my home policy cover storm damage?" -m policies.yaml
  echo "What is an excess?" | policyrag chat --no-rag`,
	RunE: runChat,
}

func init() {
	addConversationFlags(chatCmd, &chatFlags)
	chatCmd.Flags().StringVar(&chatHistory, "history", "", "JSON file with earlier messages ([{role, content}])")
	chatCmd.Flags().IntVar(&chatMaxTokens, "max-tokens", 0, "completion token limit per segment (default 4096, max 16384)")
	chatCmd.Flags().BoolVar(&chatNoContinue, "no-continue", false, "do not continue answers cut off at the token limit")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "print the full response as JSON instead of streaming")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	message, err := chatMessage(cmd, args)
	if err != nil {
		return err
	}

	var messages []domain.ChatMessage
	if chatHistory != "" {
		messages, err = loadHistory(chatHistory)
		if err != nil {
			return err
		}
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: message})

	req, err := chatFlags.buildRequest(messages)
	if err != nil {
		return err
	}
	req.MaxTokens = chatMaxTokens
	if chatNoContinue {
		autoContinue := false
		req.AutoContinue = &autoContinue
	}

	chat, err := getChat(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("chat not available: %w", err)
	}

	if chatJSON {
		resp, err := chat.Chat(cmd.Context(), req, io.Discard)
		if err != nil {
			return fmt.Errorf("chat failed: %w", err)
		}
		return printJSON(cmd, resp)
	}

	out := cmd.OutOrStdout()
	resp, err := chat.Chat(cmd.Context(), req, out)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if len(resp.Chunks) > 0 {
		cmd.Println()
		cmd.Println(mutedStyle.Render("Sources:"))
		for i, c := range resp.Chunks {
			cmd.Println(mutedStyle.Render(fmt.Sprintf("  [%d] %s", i+1, c.Label())))
		}
	}
	if resp.Finish == domain.FinishLength {
		cmd.Println(mutedStyle.Render("(answer truncated at the token limit)"))
	}
	return nil
}

// chatMessage returns the message from the arguments or standard input.
func chatMessage(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	in := cmd.InOrStdin()
	if isTerminal(in) {
		return "", errors.New("no message given")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read message: %w", err)
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "", errors.New("no message given")
	}
	return msg, nil
}

// loadHistory reads earlier conversation turns from a JSON file.
func loadHistory(path string) ([]domain.ChatMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var messages []domain.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	return messages, nil
}
