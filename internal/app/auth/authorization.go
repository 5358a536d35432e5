package auth

import (
	"net/http"

	"github.com/cantinaverde/cantina/internal/app/models"
)

// Menu column a plain user may toggle
const menuActiveColumn = "ativo"

// Tables a plain user may read
var userReadable = map[string]bool{
	"alunos":                true,
	"turmas":                true,
	"produtos":              true,
	"categorias_produtos":   true,
	"unidades_medida":       true,
	"movimentacoes_estoque": true,
}

// Tables an admin_normal may fully manage
var adminManaged = map[string]bool{
	"cardapios":           true,
	"produtos":            true,
	"categorias_produtos": true,
	"unidades_medida":     true,
}

// Allowed decides whether role may perform method on table. payloadKeys are
// the top-level keys of the request body and only matter for a user toggling
// a menu. Unknown roles are denied.
func Allowed(role models.RoleType, method, table string, payloadKeys []string) bool {
	switch role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdminNormal:
		return adminAllowed(method, table)
	case models.RoleUser:
		return userAllowed(method, table, payloadKeys)
	default:
		return false
	}
}

func adminAllowed(method, table string) bool {
	switch {
	case table == "users" || table == "user_roles":
		return false
	case table == "alunos" || table == "turmas":
		return method != http.MethodDelete
	case adminManaged[table]:
		return true
	case table == "liberacoes_lanche":
		return method == http.MethodGet || method == http.MethodPost
	default:
		// movimentacoes_estoque and any table without an explicit rule are read-only
		return method == http.MethodGet
	}
}

func userAllowed(method, table string, payloadKeys []string) bool {
	switch {
	case table == "liberacoes_lanche":
		return method == http.MethodGet || method == http.MethodPost
	case table == "cardapios":
		if method == http.MethodPut {
			return onlyKey(payloadKeys, menuActiveColumn)
		}
		return method == http.MethodGet
	case userReadable[table]:
		return method == http.MethodGet
	default:
		return false
	}
}

// onlyKey reports whether keys is non-empty and every key equals want
func onlyKey(keys []string, want string) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if k != want {
			return false
		}
	}
	return true
}
