package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

var (
	extractMaxChars int
	extractMIME     string
	extractJSON     bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract clean text from a document",
	Long: `Extracts and sanitises the text of a PDF, DOCX or plain text document.
Exits with an error when the file has no readable text.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVar(&extractMaxChars, "max-chars", 0, "truncate the text to this many characters (0 = no limit)")
	extractCmd.Flags().StringVar(&extractMIME, "mime", "", "MIME type, overrides detection by file extension")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(extractCmd)
}

type extractOutput struct {
	Path   string `json:"path"`
	OK     bool   `json:"ok"`
	Format string `json:"format"`
	Chars  int    `json:"chars"`
	Text   string `json:"text"`
	Error  string `json:"error,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	ext := getExtractor().ExtractFile(cmd.Context(), path, extractMIME, extractMaxChars)

	if extractJSON {
		out := extractOutput{
			Path:   path,
			OK:     ext.OK,
			Format: ext.Format.String(),
			Chars:  len([]rune(ext.Text)),
			Text:   ext.Text,
		}
		if ext.Err != nil {
			out.Error = ext.Err.Error()
		}
		return printJSON(cmd, out)
	}

	if !ext.OK {
		if ext.Err != nil {
			return fmt.Errorf("extract %s: %w", path, ext.Err)
		}
		return fmt.Errorf("extract %s: %w", path, errors.Join(domain.ErrExtractionFailed, errors.New(domain.UnreadablePlaceholder)))
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), ext.Text)
	return err
}
