package model

import (
	"fmt"
	"time"
)

// Complexity selects how elaborate a generated model should be.
type Complexity string

const (
	ComplexitySimple Complexity = "simple"
	ComplexityNormal Complexity = "normal"
)

// ModelSize is the physical size tier of a generated model.
type ModelSize string

const (
	ModelSizeSmall  ModelSize = "small"
	ModelSizeMedium ModelSize = "medium"
	ModelSizeLarge  ModelSize = "large"
)

// GenerateOptions tune a generation request.
type GenerateOptions struct {
	Complexity   Complexity `json:"complexity,omitempty"`
	Size         ModelSize  `json:"size,omitempty"`
	UseInventory bool       `json:"useInventory,omitempty"`
}

// Brick is a single brick type in the user's inventory.
type Brick struct {
	Type     string `json:"type" yaml:"type"`
	Color    string `json:"color" yaml:"color"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// Summary returns the inventory line used when enriching text prompts,
// e.g. "4x red 2x4".
func (b Brick) Summary() string {
	return fmt.Sprintf("%dx %s %s", b.Quantity, b.Color, b.Type)
}

// ImageFile is an in-memory image input for image-to-model generation. The
// metadata fields exist for multipart field naming and for the weak fallback
// fingerprint; only Data takes part in the content hash.
type ImageFile struct {
	Name      string
	MediaType string
	ModTime   time.Time
	Data      []byte
}

// StructuralIssue is a single stability problem detected in a generated model.
type StructuralIssue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// StructuralAnalysis is the server-computed stability feedback for a model.
type StructuralAnalysis struct {
	BuildabilityScore float64           `json:"buildabilityScore"`
	Issues            []StructuralIssue `json:"issues"`
	Recommendations   []string          `json:"recommendations"`
}

// Position is a brick placement coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BrickPlacement is a single step of a build sequence.
type BrickPlacement struct {
	Step     int      `json:"step"`
	Brick    string   `json:"brick"`
	Color    string   `json:"color"`
	Position Position `json:"position"`
}

// BuildabilityMetadata carries the per-brick build sequence and related
// stability data used for rendering and assembly guidance.
type BuildabilityMetadata struct {
	Score                     float64          `json:"score"`
	Valid                     bool             `json:"valid"`
	LayerCount                int              `json:"layerCount"`
	Issues                    []string         `json:"issues"`
	Recommendations           []string         `json:"recommendations"`
	EstimatedBuildTimeMinutes float64          `json:"estimatedBuildTimeMinutes"`
	BuildSequence             []BrickPlacement `json:"buildSequence"`
}

// GenerationResult is the immutable client-side projection of a completed
// task: where the model file lives plus optional structural metadata.
type GenerationResult struct {
	TaskID             string                `json:"taskId"`
	ModelURL           string                `json:"modelUrl"`
	BrickCount         int                   `json:"brickCount,omitempty"`
	StructuralAnalysis *StructuralAnalysis   `json:"structuralAnalysis,omitempty"`
	Buildability       *BuildabilityMetadata `json:"buildability,omitempty"`
}

// CacheEntry is a cached generation result with a time-to-live.
type CacheEntry struct {
	ID        string
	Key       string
	Payload   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Preference is a durable key-value user preference.
type Preference struct {
	Key   string
	Value string
}
