package pipeline

import (
	"context"
	stdErrors "errors"

	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// stageVerdict is the normalized result of one stage execution.
type stageVerdict struct {
	Result  models.StageResult
	Failure *models.Failure
	// Abort stops the run. A structural imbalance fails the run without
	// aborting so the remaining preparation stages still report.
	Abort bool
}

// failureKinds maps a stage that emitted error diagnostics to the caller-facing kind.
var failureKinds = map[models.StageName]models.FailureKind{
	models.StageRepair:         models.KindStructuralImbalance,
	models.StageResolveImports: models.KindEmptyComponentManifest,
	models.StageEntryPoint:     models.KindNoEntryPointCandidate,
	models.StageAssemble:       models.KindBundleInvalid,
}

// classifyStage converts the diagnostics and error of a stage into a verdict.
func classifyStage(stage models.StageName, diags models.Diagnostics, err error) stageVerdict {
	if err != nil {
		var f *models.Failure
		if !stdErrors.As(err, &f) {
			f = &models.Failure{Kind: models.KindTransportError, Stage: stage, Err: err}
		}
		if f.Stage == "" {
			f.Stage = stage
		}
		if f.Kind == models.KindTransportError && stdErrors.Is(f.Err, context.Canceled) {
			return stageVerdict{Result: models.StageResultCanceled, Failure: f, Abort: true}
		}
		return stageVerdict{Result: models.StageResultFatal, Failure: f, Abort: true}
	}

	if errs := diags.BySeverity(models.SeverityError); len(errs) > 0 {
		kind, ok := failureKinds[stage]
		if !ok {
			kind = models.KindBundleInvalid
		}
		return stageVerdict{
			Result:  models.StageResultFatal,
			Failure: &models.Failure{Kind: kind, Stage: stage, Diagnostics: errs},
			Abort:   kind != models.KindStructuralImbalance,
		}
	}
	if diags.Count(models.SeverityWarning) > 0 {
		return stageVerdict{Result: models.StageResultWarning}
	}
	return stageVerdict{Result: models.StageResultSuccess}
}
