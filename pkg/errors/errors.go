package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidArgument          = errors.New("invalid argument")
	ErrInvalidTransition        = errors.New("invalid state transition")
	ErrInconsistentAggregate    = errors.New("inconsistent aggregate")
	ErrApplicationNotFound      = errors.New("application not found")
	ErrApplicationAlreadyExists = errors.New("application already exists")
	ErrLoanNotFound             = errors.New("loan not found")
	ErrLoanAlreadyExists        = errors.New("loan already exists")
	ErrInstallmentNotFound      = errors.New("installment not found")
	ErrPaymentAlreadyExists     = errors.New("payment already exists")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidArgument          = "INVALID_ARGUMENT"
	ErrCodeInvalidTransition        = "INVALID_TRANSITION"
	ErrCodeInconsistentAggregate    = "INCONSISTENT_AGGREGATE"
	ErrCodeApplicationNotFound      = "APPLICATION_NOT_FOUND"
	ErrCodeApplicationAlreadyExists = "APPLICATION_ALREADY_EXISTS"
	ErrCodeLoanNotFound             = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists        = "LOAN_ALREADY_EXISTS"
	ErrCodeInstallmentNotFound      = "INSTALLMENT_NOT_FOUND"
	ErrCodePaymentAlreadyExists     = "PAYMENT_ALREADY_EXISTS"
	ErrCodeDatabaseError            = "DATABASE_ERROR"
	ErrCodeCacheError               = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapInvalidArgument(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidArgument,
		detail,
		ErrInvalidArgument,
	)
}

// WrapInvalidTransition names the operation and the state that forbids it.
func WrapInvalidTransition(operation, currentState string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("%s is not allowed from state %s", operation, currentState),
		ErrInvalidTransition,
	)
}

func WrapInconsistentAggregate(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeInconsistentAggregate,
		detail,
		ErrInconsistentAggregate,
	)
}

func WrapApplicationNotFound(applicationID string) *BusinessError {
	return NewBusinessError(
		ErrCodeApplicationNotFound,
		fmt.Sprintf("Application with ID %s not found", applicationID),
		ErrApplicationNotFound,
	)
}

func WrapApplicationAlreadyExists(applicationID string) *BusinessError {
	return NewBusinessError(
		ErrCodeApplicationAlreadyExists,
		fmt.Sprintf("Application with ID %s already exists", applicationID),
		ErrApplicationAlreadyExists,
	)
}

func WrapLoanNotFound(loanNumber string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan %s not found", loanNumber),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyExists(loanNumber string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("Loan %s already exists", loanNumber),
		ErrLoanAlreadyExists,
	)
}

func WrapPaymentAlreadyExists(receiptNumber string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentAlreadyExists,
		fmt.Sprintf("Payment with receipt number %s already exists", receiptNumber),
		ErrPaymentAlreadyExists,
	)
}

func WrapInstallmentNotFound(loanNumber string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Loan %s has no installment %d", loanNumber, number),
		ErrInstallmentNotFound,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
