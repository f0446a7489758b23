// Package domain defines the core business entities for corpus-cli.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - LibraryItem: A catalogue entry owned by the library collaborator
//   - ExtractedDocument: Plain text plus page geometry from one attachment
//   - StructuralUnit: A detected internal subdivision (chapter, speaker turn)
//   - Chunk / ChunkMetadata / IndexRecord: The indexable unit and its record
//   - ParsedQuery / Citation: The read path's input and output
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
