package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/credisol/lending-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, receipt_number, loan_id, installment_number, amount, payment_date,
			method, operation_ref, recorded_by, notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.ReceiptNumber,
		payment.LoanID,
		payment.InstallmentNumber,
		payment.Amount,
		payment.PaymentDate,
		payment.Method,
		payment.OperationRef,
		payment.RecordedBy,
		payment.Notes,
		time.Now(),
	)

	return err
}

func (r *paymentRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, receipt_number, loan_id, installment_number, amount, payment_date,
		       method, operation_ref, recorded_by, notes, created_at
		FROM payments
		WHERE loan_id = $1
		ORDER BY created_at
	`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*domain.Payment, error) {
	query := `
		SELECT id, receipt_number, loan_id, installment_number, amount, payment_date,
		       method, operation_ref, recorded_by, notes, created_at
		FROM payments
		WHERE receipt_number = $1
	`

	var payment domain.Payment
	if err := r.db.GetContext(ctx, &payment, query, receiptNumber); err != nil {
		return nil, err
	}

	return &payment, nil
}
