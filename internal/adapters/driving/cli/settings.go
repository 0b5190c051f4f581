package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, the vector index and pipeline tuning.

Values are saved to the config file. Environment variables override saved
values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting key with its resolved value",
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a resolved setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Save a setting to the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the configured providers and index",
	RunE:  runSettingsCheck,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for ingestion and retrieval.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the language model used for chat.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := getSettings()
	if err != nil {
		return err
	}
	settings := svc.Get()

	cmd.Println(headingStyle.Render("Current Settings"))
	cmd.Printf("Config file: %s\n", svc.ConfigPath())
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	printIfSet(cmd, "Model", settings.Embedding.Model)
	printIfSet(cmd, "Deployment", settings.Embedding.Deployment)
	printIfSet(cmd, "Base URL", settings.Embedding.BaseURL)
	if settings.Embedding.Provider.RequiresAPIKey() {
		printAPIKey(cmd, settings.Embedding.APIKey)
	}
	printStatus(cmd, settings.Embedding.Validate())
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	printIfSet(cmd, "Model", settings.LLM.Model)
	printIfSet(cmd, "Deployment", settings.LLM.Deployment)
	printIfSet(cmd, "Base URL", settings.LLM.BaseURL)
	if settings.LLM.Provider.RequiresAPIKey() {
		printAPIKey(cmd, settings.LLM.APIKey)
	}
	printStatus(cmd, settings.LLM.Validate())
	cmd.Println()

	// Index settings
	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend.Description())
	cmd.Printf("  Namespace: %s\n", settings.Index.Namespace)
	switch settings.Index.Backend {
	case domain.IndexBackendPinecone:
		printIfSet(cmd, "Host", settings.Index.Host)
		printIfSet(cmd, "Index", settings.Index.Name)
		printAPIKey(cmd, settings.Index.APIKey)
	case domain.IndexBackendPGVector:
		cmd.Printf("  DSN: %s\n", maskDSN(settings.Index.DSN))
	case domain.IndexBackendSQLite:
		printIfSet(cmd, "Data dir", settings.Index.DataDir)
	}
	printStatus(cmd, settings.Index.Validate())
	cmd.Println()

	// Pipeline settings
	p := settings.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk size: %d (overlap %d)\n", p.ChunkSize, p.ChunkOverlap)
	cmd.Printf("  Batch size: %d\n", p.BatchSize)
	cmd.Printf("  Top K: %d\n", p.TopK)
	cmd.Printf("  Context budget: %d chars (%d per chunk overhead)\n", p.ContextBudget, p.ChunkOverhead)
	cmd.Printf("  Policy chunk size: %d, max chars: %d\n", p.PolicyChunkSize, p.PolicyMaxChars)
	cmd.Printf("  Continue on error: %t\n", p.ContinueOnError)

	return nil
}

func runSettingsList(cmd *cobra.Command, _ []string) error {
	svc, err := getSettings()
	if err != nil {
		return err
	}
	values := flattenSettings(svc.Get())
	for _, key := range svc.Keys() {
		cmd.Printf("%s = %s\n", key, values[key])
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	svc, err := getSettings()
	if err != nil {
		return err
	}
	value, ok := flattenSettings(svc.Get())[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, args[0])
	}
	cmd.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := getSettings()
	if err != nil {
		return err
	}
	if err := svc.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s saved to %s\n", args[0], svc.ConfigPath())
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	svc, err := getSettings()
	if err != nil {
		return err
	}
	settings := svc.Get()
	validator := getValidator()
	ctx := cmd.Context()

	failed := 0
	report := func(name string, err error) {
		if err != nil {
			failed++
			cmd.Printf("%s %s: %v\n", failStyle.Render("✗"), name, err)
			return
		}
		cmd.Printf("%s %s\n", okStyle.Render("✓"), name)
	}

	report("embedding ("+settings.Embedding.Provider.String()+")", validator.ValidateEmbedding(ctx, &settings.Embedding))
	report("llm ("+settings.LLM.Provider.String()+")", validator.ValidateLLM(ctx, &settings.LLM))

	dims := settings.Embedding.Dimensions
	report("index ("+string(settings.Index.Backend)+")", validator.ValidateIndex(ctx, &settings.Index, dims))

	if failed > 0 {
		return fmt.Errorf("%d of 3 checks failed", failed)
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if _, err := getSettings(); err != nil {
		return err
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), "embedding", domain.DefaultEmbeddingModels())
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if _, err := getSettings(); err != nil {
		return err
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), "llm", domain.DefaultLLMModels())
}

// configureProvider asks for a provider and its connection details and saves
// them under prefix ("embedding" or "llm").
func configureProvider(cmd *cobra.Command, reader *bufio.Reader, prefix string, models map[domain.AIProvider]string) error {
	cmd.Printf("Select %s provider\n", strings.ToUpper(prefix[:1])+prefix[1:])
	providers := domain.AllAIProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	values := []struct{ key, value string }{{prefix + ".provider", provider.String()}}
	ask := func(label, key, def string) {
		if def != "" {
			cmd.Printf("%s [%s]: ", label, def)
		} else {
			cmd.Printf("%s: ", label)
		}
		v := readLine(reader)
		if v == "" {
			v = def
		}
		if v != "" {
			values = append(values, struct{ key, value string }{prefix + "." + key, v})
		}
	}

	switch provider {
	case domain.AIProviderAzure:
		ask("Endpoint", "base_url", "")
		ask("Deployment", "deployment", "")
		ask("API version", "api_version", domain.DefaultAzureAPIVersion)
	case domain.AIProviderOllama:
		ask("Base URL", "base_url", services.DefaultOllamaURL)
	}
	ask("Model", "model", models[provider])

	if provider.RequiresAPIKey() {
		cmd.Print("API key (leave empty to use the environment): ")
		if key := readPassword(cmd.InOrStdin(), reader); key != "" {
			values = append(values, struct{ key, value string }{prefix + ".api_key", key})
		}
		cmd.Println()
	}

	for _, kv := range values {
		if err := settingsService.Set(kv.key, kv.value); err != nil {
			return fmt.Errorf("failed to save %s: %w", kv.key, err)
		}
	}
	cmd.Printf("%s provider set to %s\n", prefix, provider.Description())
	return nil
}

func printIfSet(cmd *cobra.Command, label, value string) {
	if value != "" {
		cmd.Printf("  %s: %s\n", label, value)
	}
}

func printAPIKey(cmd *cobra.Command, key string) {
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
}

func printStatus(cmd *cobra.Command, err error) {
	if err != nil {
		cmd.Printf("  Status: %s (%v)\n", failStyle.Render("not configured"), err)
		return
	}
	cmd.Printf("  Status: %s\n", okStyle.Render("configured"))
}

// flattenSettings renders resolved settings under their config keys.
// Secrets are masked.
func flattenSettings(s domain.Settings) map[string]string {
	secret := func(v string) string {
		if v == "" {
			return ""
		}
		return maskAPIKey(v)
	}
	itoa := strconv.Itoa
	p := s.Pipeline
	return map[string]string{
		"embedding.provider":    s.Embedding.Provider.String(),
		"embedding.model":       s.Embedding.Model,
		"embedding.deployment":  s.Embedding.Deployment,
		"embedding.base_url":    s.Embedding.BaseURL,
		"embedding.api_key":     secret(s.Embedding.APIKey),
		"embedding.api_version": s.Embedding.APIVersion,
		"embedding.dimensions":  itoa(s.Embedding.Dimensions),

		"llm.provider":    s.LLM.Provider.String(),
		"llm.model":       s.LLM.Model,
		"llm.deployment":  s.LLM.Deployment,
		"llm.base_url":    s.LLM.BaseURL,
		"llm.api_key":     secret(s.LLM.APIKey),
		"llm.api_version": s.LLM.APIVersion,

		"index.backend":   string(s.Index.Backend),
		"index.namespace": s.Index.Namespace,
		"index.api_key":   secret(s.Index.APIKey),
		"index.host":      s.Index.Host,
		"index.name":      s.Index.Name,
		"index.dsn":       maskDSN(s.Index.DSN),
		"index.data_dir":  s.Index.DataDir,

		"pipeline.batch_size":        itoa(p.BatchSize),
		"pipeline.chunk_size":        itoa(p.ChunkSize),
		"pipeline.chunk_overlap":     itoa(p.ChunkOverlap),
		"pipeline.top_k":             itoa(p.TopK),
		"pipeline.context_budget":    itoa(p.ContextBudget),
		"pipeline.chunk_overhead":    itoa(p.ChunkOverhead),
		"pipeline.policy_chunk_size": itoa(p.PolicyChunkSize),
		"pipeline.policy_max_chars":  itoa(p.PolicyMaxChars),
		"pipeline.continue_on_error": strconv.FormatBool(p.ContinueOnError),
	}
}

// maskDSN hides the password of a postgres URL or key/value DSN.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if scheme := strings.Index(dsn, "://"); scheme >= 0 {
			userinfo := dsn[scheme+3 : at]
			if colon := strings.Index(userinfo, ":"); colon >= 0 {
				return dsn[:scheme+3] + userinfo[:colon] + ":****" + dsn[at:]
			}
		}
	}
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}
