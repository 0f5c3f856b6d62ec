// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the docqa home directory (~/.docqa, or
// $DOCQA_HOME).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates
package file
