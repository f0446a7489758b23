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
//   - LibraryClient: Supplies item metadata and attachment bytes
//   - Extractor: Turns attachment bytes into plain text
//   - EmbeddingService: Computes embedding vectors (batch)
//   - VectorStore: Stores and queries (vector, metadata) records
//   - Reranker: Scores (query, passage) pairs locally
//   - WatermarkStore: Persists the last-synced library version
//   - EmbeddingCache: Content-addressed vector cache
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
