package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/credisol/lending-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	loanQuery := `
		INSERT INTO loans (
			id, loan_number, application_id, client_id, agent_id, principal,
			monthly_rate, term_months, installment_amount, total_repayable, status,
			disbursement_date, first_due_date, last_due_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	installmentQuery := `
		INSERT INTO installments (
			id, loan_id, number, due_date, total_amount, capital_portion,
			interest_portion, balance, paid, amount_paid, payment_date, days_late,
			notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, loanQuery,
		loan.ID,
		loan.LoanNumber,
		loan.ApplicationID,
		loan.ClientID,
		loan.AgentID,
		loan.Principal,
		loan.MonthlyRate,
		loan.TermMonths,
		loan.InstallmentAmount,
		loan.TotalRepayable,
		loan.Status,
		loan.DisbursementDate,
		loan.FirstDueDate,
		loan.LastDueDate,
		now,
		now,
	)
	if err != nil {
		return err
	}

	for _, installment := range loan.Installments {
		_, err = tx.ExecContext(ctx, installmentQuery,
			installment.ID,
			installment.LoanID,
			installment.Number,
			installment.DueDate,
			installment.TotalAmount,
			installment.CapitalPortion,
			installment.InterestPortion,
			installment.Balance,
			installment.Paid,
			installment.AmountPaid,
			installment.PaymentDate,
			installment.DaysLate,
			installment.Notes,
			now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *loanRepository) GetByLoanNumber(ctx context.Context, loanNumber string) (*domain.Loan, error) {
	query := `
		SELECT id, loan_number, application_id, client_id, agent_id, principal,
		       monthly_rate, term_months, installment_amount, total_repayable, status,
		       disbursement_date, first_due_date, last_due_date, created_at, updated_at
		FROM loans
		WHERE loan_number = $1
	`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanNumber); err != nil {
		return nil, err
	}

	installments, err := r.getInstallments(ctx, loan.ID.String())
	if err != nil {
		return nil, err
	}
	loan.Installments = installments

	return &loan, nil
}

func (r *loanRepository) GetByApplicationID(ctx context.Context, applicationID string) (*domain.Loan, error) {
	query := `
		SELECT id, loan_number, application_id, client_id, agent_id, principal,
		       monthly_rate, term_months, installment_amount, total_repayable, status,
		       disbursement_date, first_due_date, last_due_date, created_at, updated_at
		FROM loans
		WHERE application_id = $1
	`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, applicationID); err != nil {
		return nil, err
	}

	installments, err := r.getInstallments(ctx, loan.ID.String())
	if err != nil {
		return nil, err
	}
	loan.Installments = installments

	return &loan, nil
}

func (r *loanRepository) getInstallments(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	query := `
		SELECT id, loan_id, number, due_date, total_amount, capital_portion,
		       interest_portion, balance, paid, amount_paid, payment_date, days_late,
		       notes, created_at
		FROM installments
		WHERE loan_id = $1
		ORDER BY number
	`

	var installments []*domain.Installment
	if err := r.db.SelectContext(ctx, &installments, query, loanID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loanID string, status string) error {
	query := `
		UPDATE loans
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, loanID, status, time.Now())
	return err
}

func (r *loanRepository) UpdateInstallment(ctx context.Context, installment *domain.Installment) error {
	query := `
		UPDATE installments
		SET paid = $3, amount_paid = $4, payment_date = $5, days_late = $6, notes = $7
		WHERE loan_id = $1 AND number = $2
	`

	_, err := r.db.ExecContext(ctx, query,
		installment.LoanID,
		installment.Number,
		installment.Paid,
		installment.AmountPaid,
		installment.PaymentDate,
		installment.DaysLate,
		installment.Notes,
	)

	return err
}

func (r *loanRepository) ListNumbersByStatus(ctx context.Context, statuses ...string) ([]string, error) {
	query, args, err := sqlx.In(`SELECT loan_number FROM loans WHERE status IN (?) ORDER BY loan_number`, statuses)
	if err != nil {
		return nil, err
	}

	var numbers []string
	if err := r.db.SelectContext(ctx, &numbers, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return numbers, nil
}
