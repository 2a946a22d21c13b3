package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/credisol/lending-engine/internal/domain"
	"github.com/credisol/lending-engine/internal/service"
	customError "github.com/credisol/lending-engine/pkg/errors"
	"github.com/credisol/lending-engine/pkg/response"
)

type CreditHandler struct {
	service   *service.CreditService
	validator *validator.Validate
}

func NewCreditHandler(service *service.CreditService) *CreditHandler {
	v := validator.New()
	registerDecimalValidators(v)

	return &CreditHandler{
		service:   service,
		validator: v,
	}
}

// registerDecimalValidators wires decimal_gt / decimal_gte tags for
// shopspring decimal fields, which the built-in numeric comparisons cannot
// handle.
func registerDecimalValidators(v *validator.Validate) {
	_ = v.RegisterValidation("decimal_gt", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		limit, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return value.GreaterThan(limit)
	})

	_ = v.RegisterValidation("decimal_gte", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		limit, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return value.GreaterThanOrEqual(limit)
	})
}

// SubmitApplication handles POST /api/v1/applications
func (h *CreditHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var request domain.SubmitApplicationRequest
	if !h.decode(w, r, &request) {
		return
	}

	app, err := h.service.SubmitApplication(r.Context(), &request)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Created(w, app)
}

// StartReview handles POST /api/v1/applications/{applicationId}/review
func (h *CreditHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	applicationID := mux.Vars(r)["applicationId"]

	app, err := h.service.StartReview(r.Context(), applicationID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Success(w, app)
}

// ApproveApplication handles POST /api/v1/applications/{applicationId}/approve
func (h *CreditHandler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := mux.Vars(r)["applicationId"]

	var request domain.DecisionRequest
	if !h.decode(w, r, &request) {
		return
	}

	app, err := h.service.ApproveApplication(r.Context(), applicationID, &request)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Success(w, app)
}

// RejectApplication handles POST /api/v1/applications/{applicationId}/reject
func (h *CreditHandler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := mux.Vars(r)["applicationId"]

	var request domain.DecisionRequest
	if !h.decode(w, r, &request) {
		return
	}

	app, err := h.service.RejectApplication(r.Context(), applicationID, &request)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Success(w, app)
}

// CancelApplication handles POST /api/v1/applications/{applicationId}/cancel
func (h *CreditHandler) CancelApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := mux.Vars(r)["applicationId"]

	var request domain.CancelApplicationRequest
	if !h.decode(w, r, &request) {
		return
	}

	app, err := h.service.CancelApplication(r.Context(), applicationID, request.Notes)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Success(w, app)
}

// FundLoan handles POST /api/v1/applications/{applicationId}/fund
func (h *CreditHandler) FundLoan(w http.ResponseWriter, r *http.Request) {
	applicationID := mux.Vars(r)["applicationId"]

	var request domain.FundLoanRequest
	if !h.decode(w, r, &request) {
		return
	}

	loan, err := h.service.FundLoan(r.Context(), applicationID, &request)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Created(w, &domain.FundLoanResponse{
		Loan:     loan,
		Schedule: loan.Installments,
	})
}

// GetSchedule handles GET /api/v1/loans/{loanNumber}/schedule
func (h *CreditHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanNumber := mux.Vars(r)["loanNumber"]

	schedule, err := h.service.GetSchedule(r.Context(), loanNumber)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Success(w, schedule)
}

// GetSummary handles GET /api/v1/loans/{loanNumber}/summary
func (h *CreditHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	loanNumber := mux.Vars(r)["loanNumber"]

	summary, err := h.service.GetLoanSummary(r.Context(), loanNumber)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Success(w, summary)
}

// RecordPayment handles POST /api/v1/loans/{loanNumber}/payments
func (h *CreditHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanNumber := mux.Vars(r)["loanNumber"]

	var request domain.RecordPaymentRequest
	if !h.decode(w, r, &request) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), loanNumber, &request)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	response.Created(w, payment)
}

// decode parses and validates the request body, writing a 400 on failure.
func (h *CreditHandler) decode(w http.ResponseWriter, r *http.Request, request interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return false
	}
	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "request validation failed", err)
		return false
	}
	return true
}

// serviceError maps business error codes onto HTTP statuses.
func (h *CreditHandler) serviceError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "unexpected error", err)
		return
	}

	switch bizErr.Code {
	case customError.ErrCodeApplicationNotFound,
		customError.ErrCodeLoanNotFound,
		customError.ErrCodeInstallmentNotFound:
		response.Error(w, http.StatusNotFound, bizErr.Message, bizErr.Code, bizErr.Err)
	case customError.ErrCodeApplicationAlreadyExists,
		customError.ErrCodeLoanAlreadyExists,
		customError.ErrCodePaymentAlreadyExists,
		customError.ErrCodeInvalidTransition:
		response.Error(w, http.StatusConflict, bizErr.Message, bizErr.Code, bizErr.Err)
	case customError.ErrCodeInvalidArgument:
		response.Error(w, http.StatusBadRequest, bizErr.Message, bizErr.Code, bizErr.Err)
	case customError.ErrCodeInconsistentAggregate:
		response.Error(w, http.StatusUnprocessableEntity, bizErr.Message, bizErr.Code, bizErr.Err)
	default:
		response.Error(w, http.StatusInternalServerError, bizErr.Message, bizErr.Code, bizErr.Err)
	}
}
