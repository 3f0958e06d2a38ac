package models

import "git.home.luguber.info/inful/sandboxer/internal/framework"

// SourceDocument is the immutable input unit.
type SourceDocument struct {
	Text      string
	Framework framework.Name
}

// StageOutcome is the value threaded between stages. Diagnostics holds only
// the findings of the stage that produced it; Manifest is set by the import
// resolver and carried forward unchanged by later stages.
type StageOutcome struct {
	Text        string
	Diagnostics Diagnostics
	Changed     bool
	Manifest    *ImportManifest
}

// Begin wraps a source document as the input of the first stage.
func Begin(doc SourceDocument) StageOutcome {
	return StageOutcome{Text: doc.Text}
}

// Next builds the outcome of a stage that consumed o.
func (o StageOutcome) Next(text string, diags Diagnostics) StageOutcome {
	return StageOutcome{
		Text:        text,
		Diagnostics: diags,
		Changed:     text != o.Text,
		Manifest:    o.Manifest,
	}
}

// HasErrors reports whether the stage produced an error diagnostic.
func (o StageOutcome) HasErrors() bool { return o.Diagnostics.HasErrors() }
