package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brickforge/brickforge/internal/model"
)

const (
	modelFileMediaType = "model/stl"
	modelFileExt       = ".stl"
)

// ExtractResult projects a terminal task into a generation result. It fails
// unless the task completed and carries a recognizable model file artifact.
// Structural analysis and buildability metadata are optional, their absence
// is not an error.
func ExtractResult(task *model.Task, resolveURL func(string) string) (*model.GenerationResult, error) {
	if task.Status.State != model.TaskStateCompleted {
		return nil, fmt.Errorf("%w: task ended in state %s", model.ErrGenerationFailed, task.Status.State)
	}

	var parts []model.Part
	if task.Artifacts != nil {
		parts = task.Artifacts.Parts
	}

	modelURL := ""
	for _, p := range parts {
		if p.File == nil {
			continue
		}
		if p.File.MediaType == modelFileMediaType || strings.HasSuffix(p.File.FileWithURI, modelFileExt) {
			modelURL = p.File.FileWithURI
			break
		}
	}
	if modelURL == "" {
		return nil, fmt.Errorf("%w in task %s artifacts", model.ErrMissingArtifact, task.ID)
	}
	if resolveURL != nil {
		modelURL = resolveURL(modelURL)
	}

	result := &model.GenerationResult{
		TaskID:             task.ID,
		ModelURL:           modelURL,
		StructuralAnalysis: parseStructuralAnalysis(task.Metadata, parts),
		Buildability:       parseBuildability(task.Metadata, parts),
	}

	if count, ok := task.Metadata["brickCount"].(float64); ok {
		result.BrickCount = int(count)
	}

	return result, nil
}

// rawSource locates a raw snake_case document inside a task envelope. Sources
// are tried in priority order and the first hit wins.
type rawSource func(metadata map[string]interface{}, parts []model.Part) map[string]interface{}

// metadataField reads a named object from the top-level task metadata.
func metadataField(key string) rawSource {
	return func(metadata map[string]interface{}, _ []model.Part) map[string]interface{} {
		raw, _ := metadata[key].(map[string]interface{})
		return raw
	}
}

// dataPartField reads a named object from the first artifact data part that
// carries it.
func dataPartField(key string) rawSource {
	return func(_ map[string]interface{}, parts []model.Part) map[string]interface{} {
		for _, p := range parts {
			if p.Data == nil {
				continue
			}
			if raw, ok := p.Data[key].(map[string]interface{}); ok {
				return raw
			}
		}
		return nil
	}
}

// barePartWith returns the whole data part document of the first part that
// carries the given key at its top level.
func barePartWith(key string) rawSource {
	return func(_ map[string]interface{}, parts []model.Part) map[string]interface{} {
		for _, p := range parts {
			if p.Data == nil {
				continue
			}
			if _, ok := p.Data[key]; ok {
				return p.Data
			}
		}
		return nil
	}
}

func firstRaw(sources []rawSource, metadata map[string]interface{}, parts []model.Part) map[string]interface{} {
	for _, source := range sources {
		if raw := source(metadata, parts); raw != nil {
			return raw
		}
	}
	return nil
}

// decodeRaw translates a raw snake_case document into a typed struct through
// a JSON round trip.
func decodeRaw(raw map[string]interface{}, dst interface{}) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

type rawStructuralIssue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type rawStructuralAnalysis struct {
	BuildabilityScore *float64             `json:"buildability_score"`
	Issues            []rawStructuralIssue `json:"issues"`
	Recommendations   []string             `json:"recommendations"`
}

var structuralAnalysisSources = []rawSource{
	metadataField("structural_analysis"),
	dataPartField("structural_analysis"),
}

// parseStructuralAnalysis extracts the structural analysis document, trying
// the task metadata first and artifact data parts second. A missing or
// malformed buildability_score means there is no analysis.
func parseStructuralAnalysis(metadata map[string]interface{}, parts []model.Part) *model.StructuralAnalysis {
	raw := firstRaw(structuralAnalysisSources, metadata, parts)
	if raw == nil {
		return nil
	}

	var decoded rawStructuralAnalysis
	if err := decodeRaw(raw, &decoded); err != nil || decoded.BuildabilityScore == nil {
		return nil
	}

	analysis := &model.StructuralAnalysis{
		BuildabilityScore: *decoded.BuildabilityScore,
		Issues:            make([]model.StructuralIssue, 0, len(decoded.Issues)),
		Recommendations:   decoded.Recommendations,
	}
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}
	for _, issue := range decoded.Issues {
		analysis.Issues = append(analysis.Issues, model.StructuralIssue{
			Type:        issue.Type,
			Severity:    issue.Severity,
			Description: issue.Description,
			Location:    issue.Location,
		})
	}

	return analysis
}

type rawBrickPlacement struct {
	Step     int            `json:"step"`
	Brick    string         `json:"brick"`
	Color    string         `json:"color"`
	Position model.Position `json:"position"`
}

type rawBuildability struct {
	Score                     float64             `json:"score"`
	Valid                     bool                `json:"valid"`
	LayerCount                int                 `json:"layer_count"`
	Issues                    []string            `json:"issues"`
	Recommendations           []string            `json:"recommendations"`
	EstimatedBuildTimeMinutes float64             `json:"estimated_build_time_minutes"`
	BuildSequence             []rawBrickPlacement `json:"build_sequence"`
}

var buildabilitySources = []rawSource{
	metadataField("buildability"),
	dataPartField("buildability"),
	barePartWith("build_sequence"),
}

// parseBuildability extracts the build sequence document. On top of the usual
// metadata/data-part sources it also accepts a data part carrying a bare
// build_sequence array. An empty sequence means there is no buildability
// metadata.
func parseBuildability(metadata map[string]interface{}, parts []model.Part) *model.BuildabilityMetadata {
	raw := firstRaw(buildabilitySources, metadata, parts)
	if raw == nil {
		return nil
	}

	var decoded rawBuildability
	if err := decodeRaw(raw, &decoded); err != nil || len(decoded.BuildSequence) == 0 {
		return nil
	}

	buildability := &model.BuildabilityMetadata{
		Score:                     decoded.Score,
		Valid:                     decoded.Valid,
		LayerCount:                decoded.LayerCount,
		Issues:                    decoded.Issues,
		Recommendations:           decoded.Recommendations,
		EstimatedBuildTimeMinutes: decoded.EstimatedBuildTimeMinutes,
		BuildSequence:             make([]model.BrickPlacement, 0, len(decoded.BuildSequence)),
	}
	if buildability.Issues == nil {
		buildability.Issues = []string{}
	}
	if buildability.Recommendations == nil {
		buildability.Recommendations = []string{}
	}
	for _, placement := range decoded.BuildSequence {
		buildability.BuildSequence = append(buildability.BuildSequence, model.BrickPlacement{
			Step:     placement.Step,
			Brick:    placement.Brick,
			Color:    placement.Color,
			Position: placement.Position,
		})
	}

	return buildability
}
