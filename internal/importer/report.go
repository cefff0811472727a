package importer

import "catalog-service/internal/models"

// reportBuilder accumulates per-row outcomes and diagnostics in the order
// encountered. Pure bookkeeping, no business logic.
type reportBuilder struct {
	total       int
	created     int
	updated     int
	skipped     int
	diagnostics []models.Diagnostic
}

func newReportBuilder(total int) *reportBuilder {
	return &reportBuilder{total: total}
}

func (b *reportBuilder) addOutcome(outcome models.RowOutcome) {
	switch outcome {
	case models.OutcomeCreated:
		b.created++
	case models.OutcomeUpdated:
		b.updated++
	case models.OutcomeSkipped:
		b.skipped++
	}
}

func (b *reportBuilder) add(diags ...models.Diagnostic) {
	b.diagnostics = append(b.diagnostics, diags...)
}

func (b *reportBuilder) hasCritical(row int) bool {
	for _, d := range b.diagnostics {
		if d.Row == row && d.Severity == models.SeverityCritical {
			return true
		}
	}
	return false
}

// build splits the diagnostic stream by severity. Success is derived: true
// iff no Critical diagnostic exists anywhere.
func (b *reportBuilder) build() *models.ImportReport {
	report := &models.ImportReport{
		Total:    b.total,
		Created:  b.created,
		Updated:  b.updated,
		Skipped:  b.skipped,
		Errors:   make([]models.Diagnostic, 0),
		Warnings: make([]models.Diagnostic, 0),
	}
	for _, d := range b.diagnostics {
		if d.Severity == models.SeverityCritical {
			report.Errors = append(report.Errors, d)
		} else {
			report.Warnings = append(report.Warnings, d)
		}
	}
	report.Success = len(report.Errors) == 0
	return report
}
