package pipeline

import (
	"strings"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// PipelineStatus represents the lifecycle status of a pipeline
type PipelineStatus string

const (
	PipelineStatusActive   PipelineStatus = "active"
	PipelineStatusArchived PipelineStatus = "archived"
)

// Stage is an ordered column of a pipeline. Stages live inside the Pipeline
// aggregate; they are never modified outside of it.
type Stage struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
	WIPLimit int       `json:"wip_limit"` // 0 means unlimited
	Terminal bool      `json:"terminal"`  // tasks moved here count as done
}

// Pipeline is a Kanban pipeline with ordered stages. Tasks reference a
// pipeline and one of its stages.
type Pipeline struct {
	shared.OrgAggregateRoot
	Name        string
	Description string
	Status      PipelineStatus
	IsDefault   bool // intake requests without an agent route land here
	Stages      []Stage
}

// DefaultStageNames are the stages a new pipeline starts with when none are given
var DefaultStageNames = []string{"Inbox", "In Progress", "Review", "Done"}

// NewPipeline creates a pipeline with the given stages, or the default set
func NewPipeline(orgID uuid.UUID, name, description string, stageNames []string) (*Pipeline, error) {
	if err := validatePipelineName(name); err != nil {
		return nil, err
	}
	if len(stageNames) == 0 {
		stageNames = DefaultStageNames
	}
	if len(stageNames) < 2 {
		return nil, shared.NewDomainError("INVALID_STAGES", "A pipeline needs at least two stages")
	}

	p := &Pipeline{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Name:             name,
		Description:      description,
		Status:           PipelineStatusActive,
		Stages:           make([]Stage, 0, len(stageNames)),
	}
	for i, sn := range stageNames {
		sn = strings.TrimSpace(sn)
		if sn == "" {
			return nil, shared.NewDomainError("INVALID_STAGE_NAME", "Stage name cannot be empty")
		}
		p.Stages = append(p.Stages, Stage{
			ID:       uuid.New(),
			Name:     sn,
			Position: i,
			Terminal: i == len(stageNames)-1,
		})
	}
	p.AddDomainEvent(NewPipelineCreatedEvent(p))
	return p, nil
}

// Update changes name and description
func (p *Pipeline) Update(name, description string) error {
	if err := validatePipelineName(name); err != nil {
		return err
	}
	p.Name = name
	p.Description = description
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Archive retires the pipeline. Archived pipelines reject new tasks.
func (p *Pipeline) Archive() error {
	if p.Status == PipelineStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Pipeline is already archived")
	}
	p.Status = PipelineStatusArchived
	p.Touch()
	p.IncrementVersion()
	return nil
}

// MarkDefault flags this pipeline as the intake fallback
func (p *Pipeline) MarkDefault() {
	p.IsDefault = true
	p.Touch()
	p.IncrementVersion()
}

// FirstStage returns the entry stage (lowest position)
func (p *Pipeline) FirstStage() *Stage {
	if len(p.Stages) == 0 {
		return nil
	}
	first := &p.Stages[0]
	for i := range p.Stages {
		if p.Stages[i].Position < first.Position {
			first = &p.Stages[i]
		}
	}
	return first
}

// StageByID returns the stage with the given ID, or nil
func (p *Pipeline) StageByID(stageID uuid.UUID) *Stage {
	for i := range p.Stages {
		if p.Stages[i].ID == stageID {
			return &p.Stages[i]
		}
	}
	return nil
}

// AddStage appends a stage at the given position, shifting later stages
func (p *Pipeline) AddStage(name string, position int, wipLimit int) (*Stage, error) {
	if p.Status == PipelineStatusArchived {
		return nil, shared.NewDomainError("INVALID_STATE", "Archived pipelines cannot be changed")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_STAGE_NAME", "Stage name must be 1-100 characters")
	}
	if wipLimit < 0 {
		return nil, shared.NewDomainError("INVALID_WIP_LIMIT", "WIP limit cannot be negative")
	}
	if position < 0 || position > len(p.Stages) {
		position = len(p.Stages)
	}
	for i := range p.Stages {
		if p.Stages[i].Position >= position {
			p.Stages[i].Position++
		}
	}
	stage := Stage{
		ID:       uuid.New(),
		Name:     name,
		Position: position,
		WIPLimit: wipLimit,
	}
	p.Stages = append(p.Stages, stage)
	p.Touch()
	p.IncrementVersion()
	return &stage, nil
}

// RenameStage changes a stage's name and WIP limit
func (p *Pipeline) RenameStage(stageID uuid.UUID, name string, wipLimit int) error {
	stage := p.StageByID(stageID)
	if stage == nil {
		return shared.NewDomainError("STAGE_NOT_FOUND", "Stage does not exist in this pipeline")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_STAGE_NAME", "Stage name must be 1-100 characters")
	}
	if wipLimit < 0 {
		return shared.NewDomainError("INVALID_WIP_LIMIT", "WIP limit cannot be negative")
	}
	stage.Name = name
	stage.WIPLimit = wipLimit
	p.Touch()
	p.IncrementVersion()
	return nil
}

// ReorderStage moves a stage to a new position
func (p *Pipeline) ReorderStage(stageID uuid.UUID, newPosition int) error {
	stage := p.StageByID(stageID)
	if stage == nil {
		return shared.NewDomainError("STAGE_NOT_FOUND", "Stage does not exist in this pipeline")
	}
	if newPosition < 0 || newPosition >= len(p.Stages) {
		return shared.NewDomainError("INVALID_POSITION", "Position out of range")
	}
	old := stage.Position
	if old == newPosition {
		return nil
	}
	for i := range p.Stages {
		pos := p.Stages[i].Position
		switch {
		case pos == old:
			p.Stages[i].Position = newPosition
		case old < newPosition && pos > old && pos <= newPosition:
			p.Stages[i].Position--
		case old > newPosition && pos >= newPosition && pos < old:
			p.Stages[i].Position++
		}
	}
	p.Touch()
	p.IncrementVersion()
	return nil
}

// RemoveStage deletes an empty stage. The caller must verify the stage holds
// no tasks; taskCount is the authoritative count from the repository.
func (p *Pipeline) RemoveStage(stageID uuid.UUID, taskCount int64) error {
	stage := p.StageByID(stageID)
	if stage == nil {
		return shared.NewDomainError("STAGE_NOT_FOUND", "Stage does not exist in this pipeline")
	}
	if taskCount > 0 {
		return shared.NewDomainError("STAGE_NOT_EMPTY", "Stage still contains tasks")
	}
	if len(p.Stages) <= 2 {
		return shared.NewDomainError("INVALID_STAGES", "A pipeline needs at least two stages")
	}
	removed := stage.Position
	out := p.Stages[:0]
	for _, s := range p.Stages {
		if s.ID == stageID {
			continue
		}
		if s.Position > removed {
			s.Position--
		}
		out = append(out, s)
	}
	p.Stages = out
	p.Touch()
	p.IncrementVersion()
	return nil
}

func validatePipelineName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_PIPELINE_NAME", "Pipeline name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_PIPELINE_NAME", "Pipeline name cannot exceed 200 characters")
	}
	return nil
}
