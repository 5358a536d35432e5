package models

import "time"

// HistoryStudent is the student attached to a history entry
type HistoryStudent struct {
	ID          string  `json:"id"`
	Nome        string  `json:"nome"`
	Matricula   string  `json:"matricula"`
	NumeroPasta *string `json:"numero_pasta"`
}

// ReleaseHistoryEntry is one row of the recent releases feed
type ReleaseHistoryEntry struct {
	ID            string          `json:"id"`
	DataLiberacao time.Time       `json:"data_liberacao"`
	Observacao    *string         `json:"observacao"`
	TurmaNome     string          `json:"turma_nome"`
	CardapioNome  string          `json:"cardapio_nome"`
	TipoRefeicao  MealType        `json:"tipo_refeicao"`
	Aluno         *HistoryStudent `json:"aluno"`
}

// ActiveMenu is the menu currently flagged ativo
type ActiveMenu struct {
	ID           string   `json:"id"`
	Nome         string   `json:"nome"`
	TipoRefeicao MealType `json:"tipo_refeicao"`
}

// ReleaseCheck tells the operator whether a new release needs confirmation
type ReleaseCheck struct {
	Recent                    bool        `json:"recent"`
	UltimaLiberacao           *time.Time  `json:"ultima_liberacao"`
	CardapioAtivo             *ActiveMenu `json:"cardapio_ativo"`
	RequerConfirmacaoBolsista bool        `json:"requer_confirmacao_bolsista"`
}
