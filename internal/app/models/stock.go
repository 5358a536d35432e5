package models

import "time"

// StockMovement is an append-only change to a product's stock
type StockMovement struct {
	ID         string       `json:"id"`
	ProdutoID  string       `json:"produto_id"`
	Tipo       MovementType `json:"tipo"`
	Quantidade float64      `json:"quantidade"`
	Observacao *string      `json:"observacao"`
	UsuarioID  *string      `json:"usuario_id"`
	CreatedAt  time.Time    `json:"created_at"`
}

// StockAdjustment is the result of applying a movement
type StockAdjustment struct {
	Movement      StockMovement `json:"movement"`
	NovoEstoque   float64       `json:"quantidade_estoque"`
	ProdutoNome   string        `json:"produto_nome"`
	EstoqueMinimo float64       `json:"quantidade_minima"`
}

// ProductAlert is a product listed in the stock alerts report
type ProductAlert struct {
	ID                string  `json:"id"`
	Nome              string  `json:"nome"`
	Categoria         *string `json:"categoria"`
	Unidade           *string `json:"unidade"`
	QuantidadeEstoque float64 `json:"quantidade_estoque"`
	QuantidadeMinima  float64 `json:"quantidade_minima"`
	DataValidade      *string `json:"data_validade"`
	DiasParaVencer    *int    `json:"dias_para_vencer,omitempty"`
}

// StockAlerts groups low-stock and expiring products
type StockAlerts struct {
	EstoqueBaixo []ProductAlert `json:"estoque_baixo"`
	Vencendo     []ProductAlert `json:"vencendo"`
}
