package ports

import (
	"context"

	"github.com/csg33k/tss-payroll/internal/domain"
)

// ArtifactRepository archives generated files.
type ArtifactRepository interface {
	SaveArtifact(ctx context.Context, a *domain.Artifact) error
	GetArtifact(ctx context.Context, id string) (*domain.Artifact, error)
	ListArtifacts(ctx context.Context) ([]domain.Artifact, error)
	DeleteArtifact(ctx context.Context, id string) error
}

// SubmissionExporter produces the treasury submission file for an approved
// batch. The format is fixed by deployment configuration.
type SubmissionExporter interface {
	Generate(ctx context.Context, batch *domain.PayrollBatch) (*domain.Artifact, error)
}

// ReportExporter produces the internal summary workbook.
type ReportExporter interface {
	Generate(ctx context.Context, batch *domain.PayrollBatch) (*domain.Artifact, error)
}

// PayslipRenderer produces a printable payslip for one line.
type PayslipRenderer interface {
	Generate(ctx context.Context, line *domain.PayrollLine, emp *domain.Employee) (*domain.Artifact, error)
}
