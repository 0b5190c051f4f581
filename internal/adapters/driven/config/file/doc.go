// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the policyrag config directory
// (~/.policyrag by default).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt files with embedded defaults
package file
