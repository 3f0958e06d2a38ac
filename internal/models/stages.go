package models

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageNormalize      StageName = "normalize"
	StageRepair         StageName = "repair"
	StageResolveImports StageName = "resolve_imports"
	StageEntryPoint     StageName = "entry_point"
	StageAssemble       StageName = "assemble"
	StageSubmit         StageName = "submit"
)

// StageOrder returns every stage in its fixed execution order.
func StageOrder() []StageName {
	return []StageName{StageNormalize, StageRepair, StageResolveImports, StageEntryPoint, StageAssemble, StageSubmit}
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)
