package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan statuses. A rejected request gets its own terminal state instead
// of reusing quitado, so "paid off" and "turned down" stay apart in
// every report.
const (
	LoanPendente  = "pendente"
	LoanAprovado  = "aprovado"
	LoanQuitado   = "quitado"
	LoanRejeitado = "rejeitado"
	LoanAtrasado  = "atrasado"
)

// Loan member types, deciding which configured interest rate applies.
const (
	LoanCotista    = "cotista"
	LoanNaoCotista = "nao_cotista"
)

// Loan is a borrow request against paid quotas. ValorTotalDevolver is
// fixed at request time as ValorSolicitado plus the interest snapshot.
type Loan struct {
	ID                 string
	UserUID            string
	ValorSolicitado    decimal.Decimal
	ValorTotalDevolver decimal.Decimal
	JuroAplicado       decimal.Decimal // percent
	Tipo               string
	Status             string
	DataSolicitacao    time.Time
	DataVencimento     time.Time
}

// PendingLoan is a loan request joined with the requester for the admin
// review screen.
type PendingLoan struct {
	Loan
	Email    string
	FullName string
}

// DummyRequestLoan carries a loan request before validation.
type DummyRequestLoan struct {
	ValorSolicitado float64 `json:"valor_solicitado" validate:"required,gt=0"`
}
