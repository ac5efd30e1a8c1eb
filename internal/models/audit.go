package models

import "time"

// AdminAction is one row of the admin audit trail. Snapshots are stored
// as raw JSON.
type AdminAction struct {
	ID              string
	AdminUID        string
	Acao            string
	TabelaAfetada   string
	RegistroID      string
	DadosAnteriores []byte
	DadosNovos      []byte
	Timestamp       time.Time
}
