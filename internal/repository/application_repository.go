package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/credisol/lending-engine/internal/domain"
)

type applicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	query := `
		INSERT INTO loan_applications (
			id, application_id, applicant_name, applicant_document, applicant_contact,
			agent_id, purpose, declared_income, principal, term_months, monthly_rate,
			status, submitted_at, reviewed_at, decided_at, reviewer_id, decision_notes,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		app.ID,
		app.ApplicationID,
		app.ApplicantName,
		app.ApplicantDocument,
		app.ApplicantContact,
		app.AgentID,
		app.Purpose,
		app.DeclaredIncome,
		app.Principal,
		app.TermMonths,
		app.MonthlyRate,
		app.Status,
		app.SubmittedAt,
		app.ReviewedAt,
		app.DecidedAt,
		app.ReviewerID,
		app.DecisionNotes,
		now,
		now,
	)

	return err
}

func (r *applicationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*domain.LoanApplication, error) {
	query := `
		SELECT id, application_id, applicant_name, applicant_document, applicant_contact,
		       agent_id, purpose, declared_income, principal, term_months, monthly_rate,
		       status, submitted_at, reviewed_at, decided_at, reviewer_id, decision_notes
		FROM loan_applications
		WHERE application_id = $1
	`

	var app domain.LoanApplication
	if err := r.db.GetContext(ctx, &app, query, applicationID); err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.LoanApplication) error {
	query := `
		UPDATE loan_applications
		SET status = $2, reviewed_at = $3, decided_at = $4, reviewer_id = $5,
		    decision_notes = $6, updated_at = $7
		WHERE application_id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		app.ApplicationID,
		app.Status,
		app.ReviewedAt,
		app.DecidedAt,
		app.ReviewerID,
		app.DecisionNotes,
		time.Now(),
	)

	return err
}
