package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SystemConfig is the singleton row of tunable business parameters.
// Every lifecycle reads it to price amounts and rates; changes apply to
// subsequent calculations only, never retroactively.
type SystemConfig struct {
	ID                       string
	JuroAtrasoCota           decimal.Decimal // percent applied to late installments
	JuroEmprestimoCotista    decimal.Decimal // percent
	JuroEmprestimoNaoCotista decimal.Decimal // percent
	ValorPremioSorteio       decimal.Decimal
	ValorMinimoCota          decimal.Decimal
	ValorBilheteSorteio      decimal.Decimal
	MaxAdmins                int
	UpdatedAt                time.Time
}

// LoanRate returns the configured loan interest for the given member
// type.
func (c SystemConfig) LoanRate(tipo string) decimal.Decimal {
	if tipo == LoanCotista {
		return c.JuroEmprestimoCotista
	}
	return c.JuroEmprestimoNaoCotista
}

// DummyUpdateConfig carries an admin configuration update. All fields
// are required so the row is always rewritten as a whole.
type DummyUpdateConfig struct {
	JuroAtrasoCota           float64 `json:"juro_atraso_cota" validate:"gte=0"`
	JuroEmprestimoCotista    float64 `json:"juro_emprestimo_cotista" validate:"gte=0"`
	JuroEmprestimoNaoCotista float64 `json:"juro_emprestimo_nao_cotista" validate:"gte=0"`
	ValorPremioSorteio       float64 `json:"valor_premio_sorteio" validate:"gt=0"`
	ValorMinimoCota          float64 `json:"valor_minimo_cota" validate:"gt=0"`
	ValorBilheteSorteio      float64 `json:"valor_bilhete_sorteio" validate:"gt=0"`
	MaxAdmins                int     `json:"max_admins" validate:"gte=1"`
}
