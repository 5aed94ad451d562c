// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Store: Spaces, files, embedding records and conversations
//   - EmbeddingService: Generates vector embeddings
//   - PageExtractor: Extracts text from a rendered page
//   - Rasterizer: Renders a document into page images
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AnswerProvider: Generates answers. Without it, only retrieval is available.
//   - AssetStore: Publishes page images. Without it, images stay on local disk.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
