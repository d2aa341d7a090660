package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error; known prompts missing from storage
	// fall back to the built-in default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem constrains the model to answer from supplied context.
	// This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser wraps the retrieved context and the question.
	// The template expects two %s placeholders: context, then question.
	PromptAnswerUser = "answer_user"

	// PromptSummariseSystem is the system prompt for summaries.
	// This prompt has no format placeholders.
	PromptSummariseSystem = "summarise_system"

	// PromptSummariseUser wraps the text to summarise.
	// The template expects one %s placeholder for the content.
	PromptSummariseUser = "summarise_user"
)
