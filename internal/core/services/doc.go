// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO dependencies. The write path is
// IndexOrchestrator (library -> chunks -> vectors); the read path is
// SearchService (query -> filtered retrieval -> re-ranked citations).
// Both share the Embedder and the chunk metadata schema as their
// contract.
package services
