package repositories

import (
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/cantinaverde/cantina/internal/app/models"
)

// Table describes an allow-listed table exposed by the generic CRUD API
type Table struct {
	Name        string
	Columns     map[string]bool
	DateColumns []string

	// alias qualifies column references when the list query joins other tables
	alias        string
	computed     map[string]string
	defaultOrder string
	listSelect   func(sb squirrel.StatementBuilderType) squirrel.SelectBuilder
	shape        func(models.Record)
}

// HasColumn reports whether col is a real column of the table
func (t *Table) HasColumn(col string) bool {
	return t.Columns[col]
}

// HasUpdatedAt reports whether the table tracks modification time
func (t *Table) HasUpdatedAt() bool {
	return t.Columns["updated_at"]
}

// qualified returns the expression a list query filters and sorts col by:
// the computed value shown in the response, or col prefixed with the list
// alias, if any
func (t *Table) qualified(col string) string {
	if expr, ok := t.computed[col]; ok {
		return expr
	}
	if t.alias == "" {
		return col
	}
	return t.alias + "." + col
}

func (t *Table) selectList(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
	if t.listSelect != nil {
		return t.listSelect(sb)
	}
	return sb.Select("*").From(t.Name)
}

// Table names exposed under /api
const (
	TableStudents       = "alunos"
	TableClasses        = "turmas"
	TableProducts       = "produtos"
	TableCategories     = "categorias_produtos"
	TableUnits          = "unidades_medida"
	TableMenus          = "cardapios"
	TableMenuItems      = "itens_cardapio"
	TableReleases       = "liberacoes_lanche"
	TableStockMovements = "movimentacoes_estoque"
	TableUsers          = "users"
	TableUserRoles      = "user_roles"
)

func columns(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// nested replaces the flat join columns of a row with a nested object, or
// nil when the join found nothing (signalled by a nil marker column).
func nested(r models.Record, key, marker string, fields map[string]string) {
	if r[marker] == nil {
		r[key] = nil
		return
	}
	obj := make(map[string]interface{}, len(fields))
	for out, in := range fields {
		obj[out] = r[in]
	}
	r[key] = obj
}

// Release names resolved from the joined class and menu, falling back to the
// snapshot stored on the release
var releaseNames = map[string]string{
	"turma_nome":    "COALESCE(t.nome, ll.turma_nome, '-')",
	"cardapio_nome": "COALESCE(c.nome, ll.cardapio_nome, '-')",
	"tipo_refeicao": "COALESCE(c.tipo_refeicao, ll.tipo_refeicao, 'lanche')",
}

var tables = map[string]*Table{
	TableStudents: {
		Name: TableStudents,
		Columns: columns("id", "nome", "matricula", "numero_pasta", "data_nascimento", "e_bolsista",
			"status", "turma_id", "email", "telefone", "observacao", "created_at", "updated_at"),
		DateColumns:  []string{"data_nascimento"},
		alias:        "a",
		defaultOrder: "a.nome ASC",
		listSelect: func(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
			return sb.Select("a.*", "t.nome AS turma_nome").
				From("alunos a").
				LeftJoin("turmas t ON t.id = a.turma_id")
		},
		shape: func(r models.Record) {
			nested(r, "turmas", "turma_nome", map[string]string{"nome": "turma_nome"})
		},
	},
	TableClasses: {
		Name:    TableClasses,
		Columns: columns("id", "nome", "created_at", "updated_at"),
	},
	TableProducts: {
		Name: TableProducts,
		Columns: columns("id", "nome", "categoria", "unidade", "quantidade_estoque", "quantidade_minima",
			"data_validade", "created_at", "updated_at"),
		DateColumns: []string{"data_validade"},
	},
	TableCategories: {
		Name:    TableCategories,
		Columns: columns("id", "nome", "created_at"),
	},
	TableUnits: {
		Name:    TableUnits,
		Columns: columns("id", "nome", "created_at"),
	},
	TableMenus: {
		Name: TableMenus,
		Columns: columns("id", "nome", "data_inicio", "data_fim", "descricao", "tipo_refeicao", "ativo",
			"created_at", "updated_at"),
		DateColumns: []string{"data_inicio", "data_fim"},
	},
	TableMenuItems: {
		Name:    TableMenuItems,
		Columns: columns("id", "cardapio_id", "nome", "descricao", "categoria", "created_at"),
	},
	TableReleases: {
		Name: TableReleases,
		Columns: columns("id", "aluno_id", "cardapio_id", "turma_nome", "cardapio_nome", "tipo_refeicao",
			"data_liberacao", "usuario_id", "observacao", "created_at"),
		alias:        "ll",
		computed:     releaseNames,
		defaultOrder: "ll.data_liberacao DESC",
		// The computed name columns come after ll.* and replace the snapshot
		// values of the same name when the row is collected.
		listSelect: func(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
			return sb.Select(
				"ll.*",
				releaseNames["turma_nome"]+" AS turma_nome",
				releaseNames["cardapio_nome"]+" AS cardapio_nome",
				releaseNames["tipo_refeicao"]+" AS tipo_refeicao",
				"a.nome AS aluno_nome",
				"a.matricula AS aluno_matricula",
				"a.numero_pasta AS aluno_numero_pasta",
			).
				From("liberacoes_lanche ll").
				LeftJoin("alunos a ON a.id = ll.aluno_id").
				LeftJoin("turmas t ON t.id = a.turma_id").
				LeftJoin("cardapios c ON c.id = ll.cardapio_id")
		},
		shape: func(r models.Record) {
			nested(r, "alunos", "aluno_nome", map[string]string{
				"nome":         "aluno_nome",
				"matricula":    "aluno_matricula",
				"numero_pasta": "aluno_numero_pasta",
			})
		},
	},
	TableStockMovements: {
		Name:         TableStockMovements,
		Columns:      columns("id", "produto_id", "tipo", "quantidade", "observacao", "usuario_id", "created_at"),
		alias:        "m",
		defaultOrder: "m.created_at DESC",
		listSelect: func(sb squirrel.StatementBuilderType) squirrel.SelectBuilder {
			return sb.Select("m.*", "p.nome AS produto_nome", "p.unidade AS produto_unidade").
				From("movimentacoes_estoque m").
				LeftJoin("produtos p ON p.id = m.produto_id")
		},
		shape: func(r models.Record) {
			nested(r, "produtos", "produto_nome", map[string]string{
				"nome":    "produto_nome",
				"unidade": "produto_unidade",
			})
		},
	},
	TableUsers: {
		Name:    TableUsers,
		Columns: columns("id", "email", "full_name", "role", "password_hash", "created_at", "updated_at"),
	},
	TableUserRoles: {
		Name:    TableUserRoles,
		Columns: columns("id", "user_id", "role", "created_at"),
	},
}

// LookupTable returns the allow-listed table named name
func LookupTable(name string) (*Table, bool) {
	t, ok := tables[name]
	return t, ok
}

// TableNames lists every allow-listed table, sorted
func TableNames() []string {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Redact removes secrets from a row before it leaves the server
func Redact(r models.Record) models.Record {
	delete(r, "password_hash")
	return r
}
