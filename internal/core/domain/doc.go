// Package domain defines the core business entities for Briefing.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Message / Session: One conversation turn and its TTL-bound history
//   - Chunk: A bounded slice of source text sized for embedding
//   - VectorRecord: The unit stored in and retrieved from the vector index
//   - RetrievalResult: Ranked similarity matches for one query
//   - TurnRequest / TurnResult: The conversational contract
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
