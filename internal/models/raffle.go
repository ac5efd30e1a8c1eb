package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raffle statuses. Drawing is irreversible; there is no path back to
// aberto.
const (
	RaffleAberto   = "aberto"
	RaffleFechado  = "fechado"
	RaffleSorteado = "sorteado"
)

// Ticket statuses. An expired reservation is released by the
// reconciler, freeing its number for other members.
const (
	TicketReservado  = "reservado"
	TicketConfirmado = "confirmado"
	TicketLiberado   = "liberado"
)

// Raffle numbers are picked from this closed range.
const (
	RaffleNumberMin = 1
	RaffleNumberMax = 100
)

// ReservationTTL is how long a reserved number waits for payment before
// being released.
const ReservationTTL = 3 * 24 * time.Hour

// MonthlyRaffle is the number draw of one (month, year). The winning
// number comes from the last two digits of the federal lottery result.
type MonthlyRaffle struct {
	ID               string
	Mes              int
	Ano              int
	PremioValor      decimal.Decimal
	Status           string
	ResultadoLoteria *string
	NumeroSorteado   *int
	DataSorteio      *time.Time
}

// RaffleTicket is one chosen number within a raffle, owned by a member,
// with its own payment sub-lifecycle.
type RaffleTicket struct {
	ID                    string
	RaffleID              string
	UserUID               string
	NumeroEscolhido       int
	ValorPago             decimal.Decimal
	DataReserva           time.Time
	DataVencimentoReserva time.Time
	Status                string
	PagamentoStatus       string
	FormaPagamento        *string
	ComprovanteURL        *string
	DataPagamento         *time.Time
}

// Expired reports whether the reservation window has passed at the
// given instant.
func (t RaffleTicket) Expired(now time.Time) bool {
	return t.Status == TicketReservado && now.After(t.DataVencimentoReserva)
}

// ReleasedTicket is a reservation freed by the reconciler, joined with
// its owner and raffle for the notification message.
type ReleasedTicket struct {
	TicketID        string
	NumeroEscolhido int
	Mes             int
	Ano             int
	UserUID         string
	Email           string
	FullName        string
}

// DummyReserveNumbers carries a batch reservation request.
type DummyReserveNumbers struct {
	Numbers []int `json:"numbers" validate:"required,min=1,dive,gte=1,lte=100"`
}

// DummyTicketBatch carries the ticket IDs of a bulk admin confirmation
// or rejection.
type DummyTicketBatch struct {
	TicketIDs []string `json:"ticket_ids" validate:"required,min=1,dive,uuid"`
}

// DummyDrawRaffle carries the federal lottery result used to draw.
type DummyDrawRaffle struct {
	ResultadoLoteria string `json:"resultado_loteria" validate:"required,min=2"`
}
