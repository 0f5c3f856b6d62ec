// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorIndex: Collection-partitioned similarity storage (memory, SQLite, Chroma)
//   - ExtractorRegistry: Selects an Extractor by content type
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Only needed by index backends that embed locally.
//   - LLMService: Without it, answers report source "error" with a diagnostic.
//   - OCREngine: Without it, images and scanned PDF pages yield no text.
//   - Transcriber: Without it, audio input is rejected.
//   - PromptStore: Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
