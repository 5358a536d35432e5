package models

// StudentLookup is the projection returned when a scanned code is resolved
type StudentLookup struct {
	ID          string  `json:"id"`
	Nome        string  `json:"nome"`
	Matricula   string  `json:"matricula"`
	NumeroPasta *string `json:"numero_pasta"`
	TurmaNome   string  `json:"turma_nome"`
	EBolsista   bool    `json:"e_bolsista"`
}
