package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names.
const (
	// PromptGroundedSystem instructs the model to answer only from context
	// and to reply with the not-found sentinel otherwise.
	// The template expects one %s placeholder for the sentinel.
	PromptGroundedSystem = "grounded_system"

	// PromptGroundedUser wraps context and question.
	// The template expects %s (context) then %s (question).
	PromptGroundedUser = "grounded_user"

	// PromptGeneralSystem is used for context-free fallback answers.
	// This prompt has no format placeholders.
	PromptGeneralSystem = "general_system"

	// PromptOCR asks a vision model to transcribe the text in an image.
	// This prompt has no format placeholders.
	PromptOCR = "ocr"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses its built-in prompts.
	SetPromptStore(store PromptStore)
}
