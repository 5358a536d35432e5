package models

// DailyCount is the number of releases on one day
type DailyCount struct {
	Data       string `json:"data"`
	DiaSemana  string `json:"dia_semana"`
	Liberacoes int    `json:"liberacoes"`
}

// DashboardStats is the summary shown on the home screen
type DashboardStats struct {
	LiberacoesHoje   int          `json:"liberacoes_hoje"`
	AlunosAtivos     int          `json:"alunos_ativos"`
	TotalProdutos    int          `json:"total_produtos"`
	CardapiosAtivos  int          `json:"cardapios_ativos"`
	EntradasSemana   int          `json:"entradas_semana"`
	SaidasSemana     int          `json:"saidas_semana"`
	LiberacoesPorDia []DailyCount `json:"liberacoes_por_dia"`
}
