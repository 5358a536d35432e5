package dto

// StockAdjustmentRequest is the body of update_produto_estoque. Quantities
// stay untyped because older screens send them as strings.
type StockAdjustmentRequest struct {
	ProdutoID        string      `json:"produto_id"`
	Tipo             string      `json:"tipo"`
	TipoMovimentacao string      `json:"tipo_movimentacao"`
	Quantidade       interface{} `json:"quantidade"`
	NovaQuantidade   interface{} `json:"nova_quantidade"`
	Observacao       *string     `json:"observacao"`
	UsuarioID        *string     `json:"usuario_id"`
}

// StudentLookupRequest is the body of buscar_aluno; query is an alias of codigo
type StudentLookupRequest struct {
	Codigo interface{} `json:"codigo"`
	Query  interface{} `json:"query"`
}

// HistoryRequest is the body of liberacoes_history
type HistoryRequest struct {
	Limit interface{} `json:"limit"`
}

// ReleaseCheckRequest is the body of verificar_liberacao
type ReleaseCheckRequest struct {
	AlunoID string `json:"aluno_id" validate:"required,uuid"`
}

// StockAlertsRequest is the body of estoque_alertas
type StockAlertsRequest struct {
	Dias *int `json:"dias" validate:"omitempty,min=0,max=365"`
}
