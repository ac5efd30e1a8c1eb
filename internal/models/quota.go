package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quota statuses. A cancelled quota never returns to ativa; the member
// has to register a new one.
const (
	QuotaAtiva   = "ativa"
	QuotaInativa = "inativa"
)

// Installment (quota payment) statuses.
const (
	PaymentPendente   = "pendente"
	PaymentAguardando = "aguardando_confirmacao"
	PaymentPago       = "pago"
	PaymentAtrasado   = "atrasado"
)

// Payment methods accepted for installments and raffle tickets.
const (
	MethodPix      = "PIX"
	MethodDinheiro = "dinheiro"
)

// Quota is a member's recurring monthly contribution commitment.
// The monthly obligation is NumCotas times ValorPorCota.
type Quota struct {
	ID           string
	UserUID      string
	NumCotas     int
	ValorPorCota decimal.Decimal
	Status       string
	DataCadastro time.Time
}

// Obligation returns the total monthly amount owed for this quota.
func (q Quota) Obligation() decimal.Decimal {
	return q.ValorPorCota.Mul(decimal.NewFromInt(int64(q.NumCotas)))
}

// QuotaPayment is one monthly installment of a quota, keyed by the
// reference month and year. DataVencimento falls on the 5th business
// day of the reference month.
type QuotaPayment struct {
	ID             string
	QuotaID        string
	MesReferencia  int
	AnoReferencia  int
	ValorPago      decimal.Decimal
	DataVencimento time.Time
	DataPagamento  *time.Time
	JuroAplicado   decimal.Decimal
	Status         string
	FormaPagamento string
	ComprovanteURL *string
}

// PendingPayment is an installment awaiting admin confirmation, joined
// with the owning member for the review screen.
type PendingPayment struct {
	QuotaPayment
	UserUID  string
	Email    string
	FullName string
}

// DummyRegisterQuota carries a quota registration request.
type DummyRegisterQuota struct {
	NumCotas int `json:"num_cotas" validate:"required,gte=1"`
}

// DummyAddQuotas carries a request to raise the quota count.
type DummyAddQuotas struct {
	AdditionalCotas int `json:"additional_cotas" validate:"required,gte=1"`
}

// DummyCancelQuota carries the typed confirmation phrase required to
// cancel a quota.
type DummyCancelQuota struct {
	Confirmation string `json:"confirmation" validate:"required"`
}

// CancelConfirmationPhrase must be typed verbatim by the member before
// the cancellation is accepted.
const CancelConfirmationPhrase = "CANCELAR COTAS"
