// Package domain defines the core business entities for Spaces.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Space: A named collection of documents
//   - File: A document inside a space
//   - EmbeddingRecord: The indexed form of one page
//   - ConversationEntry: One turn of a question/answer exchange
//   - StoredEmbedding: A persisted vector in one of several encodings
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
