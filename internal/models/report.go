package models

import "github.com/shopspring/decimal"

// Dashboard is the admin overview aggregate, computed in SQL and
// cached. The reference period is the most recent (ano, mes) seen
// across paid installments, loans and raffles, so the month figures
// stay meaningful even when the caixinha has been idle.
type Dashboard struct {
	TotalMembros         int             `json:"total_membros"`
	TotalCotistas        int             `json:"total_cotistas"`
	CotasAtivas          int             `json:"cotas_ativas"`
	ValorMensalEsperado  decimal.Decimal `json:"valor_mensal_esperado"`
	PagamentosAguardando int             `json:"pagamentos_aguardando"`
	PagamentosAtrasados  int             `json:"pagamentos_atrasados"`
	EmprestimosPendentes int             `json:"emprestimos_pendentes"`
	EmprestimosAbertos   decimal.Decimal `json:"emprestimos_abertos"`
	TotalArrecadado      decimal.Decimal `json:"total_arrecadado"`
	TotalEmprestado      decimal.Decimal `json:"total_emprestado"`
	ReferenciaMes        int             `json:"referencia_mes"`
	ReferenciaAno        int             `json:"referencia_ano"`
	ArrecadadoMes        decimal.Decimal `json:"arrecadado_mes"`
	EmprestadoMes        decimal.Decimal `json:"emprestado_mes"`
	UltimoSorteio        *MonthlyRaffle  `json:"ultimo_sorteio,omitempty"`
}

// RevenueEntry is one member's collected money in one month of the
// requested year: paid installments with late interest, confirmed
// raffle spend and the interest of settled loans bucketed by due
// month.
type RevenueEntry struct {
	UserUID     string          `json:"user_uid"`
	Email       string          `json:"email"`
	FullName    string          `json:"full_name"`
	Mes         int             `json:"mes"`
	Cotas       decimal.Decimal `json:"cotas"`
	Sorteios    decimal.Decimal `json:"sorteios"`
	Emprestimos decimal.Decimal `json:"emprestimos"`
	Total       decimal.Decimal `json:"total"`
}
