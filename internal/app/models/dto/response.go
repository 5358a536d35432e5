package dto

import "github.com/cantinaverde/cantina/internal/app/models"

// OkResponse acknowledges an RPC that has no payload
type OkResponse struct {
	Ok bool `json:"ok"`
}

// StudentLookupResponse wraps the resolved student, null when none matched
type StudentLookupResponse struct {
	Aluno *models.StudentLookup `json:"aluno"`
}

// HistoryResponse wraps the recent releases
type HistoryResponse struct {
	Liberacoes []models.ReleaseHistoryEntry `json:"liberacoes"`
}
