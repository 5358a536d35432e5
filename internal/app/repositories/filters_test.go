package repositories

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
)

var testSB = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func mustTable(t *testing.T, name string) *Table {
	t.Helper()
	tbl, ok := LookupTable(name)
	if !ok {
		t.Fatalf("table %s not registered", name)
	}
	return tbl
}

func buildListSQL(t *testing.T, table string, raw string) (string, []interface{}) {
	t.Helper()
	tbl := mustTable(t, table)
	q, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("ParseQuery(%q) error = %v", raw, err)
	}
	opts, err := ParseListOptions(tbl, q)
	if err != nil {
		t.Fatalf("ParseListOptions(%q) error = %v", raw, err)
	}
	sql, args, err := opts.apply(tbl, tbl.selectList(testSB)).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	return sql, args
}

func TestListSQL(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		query    string
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "plain table no params",
			table:   TableProducts,
			query:   "",
			wantSQL: "SELECT * FROM produtos",
		},
		{
			name:     "filters order limit",
			table:    TableProducts,
			query:    "nome=eq.Arroz&quantidade_estoque=gte.5&order=nome.desc&limit=3",
			wantSQL:  "SELECT * FROM produtos WHERE nome = $1 AND quantidade_estoque >= $2 ORDER BY nome DESC LIMIT 3",
			wantArgs: []interface{}{"Arroz", "5"},
		},
		{
			name:     "select is ignored",
			table:    TableClasses,
			query:    "select=*&nome=neq.A",
			wantSQL:  "SELECT * FROM turmas WHERE nome <> $1",
			wantArgs: []interface{}{"A"},
		},
		{
			name:     "date range on one column",
			table:    TableMenus,
			query:    "data_inicio=gte.2024-01-01&data_inicio=lt.2024-02-01",
			wantSQL:  "SELECT * FROM cardapios WHERE data_inicio >= $1 AND data_inicio < $2",
			wantArgs: []interface{}{"2024-01-01", "2024-02-01"},
		},
		{
			name:     "enriched table qualifies columns and keeps default order",
			table:    TableStudents,
			query:    "turma_id=in.(t1,t2)",
			wantSQL:  "SELECT a.*, t.nome AS turma_nome FROM alunos a LEFT JOIN turmas t ON t.id = a.turma_id WHERE a.turma_id IN ($1,$2) ORDER BY a.nome ASC",
			wantArgs: []interface{}{"t1", "t2"},
		},
		{
			name:    "explicit order replaces default",
			table:   TableStockMovements,
			query:   "order=quantidade.asc&offset=10",
			wantSQL: "SELECT m.*, p.nome AS produto_nome, p.unidade AS produto_unidade FROM movimentacoes_estoque m LEFT JOIN produtos p ON p.id = m.produto_id ORDER BY m.quantidade ASC OFFSET 10",
		},
		{
			name:    "is null",
			table:   TableReleases,
			query:   "aluno_id=is.null&limit=1",
			wantSQL: "SELECT ll.*, COALESCE(t.nome, ll.turma_nome, '-') AS turma_nome, COALESCE(c.nome, ll.cardapio_nome, '-') AS cardapio_nome, COALESCE(c.tipo_refeicao, ll.tipo_refeicao, 'lanche') AS tipo_refeicao, a.nome AS aluno_nome, a.matricula AS aluno_matricula, a.numero_pasta AS aluno_numero_pasta FROM liberacoes_lanche ll LEFT JOIN alunos a ON a.id = ll.aluno_id LEFT JOIN turmas t ON t.id = a.turma_id LEFT JOIN cardapios c ON c.id = ll.cardapio_id WHERE ll.aluno_id IS NULL ORDER BY ll.data_liberacao DESC LIMIT 1",
		},
		{
			name:     "release names filter and sort by the value shown",
			table:    TableReleases,
			query:    "turma_nome=eq.6A&order=cardapio_nome.asc",
			wantSQL:  "SELECT ll.*, COALESCE(t.nome, ll.turma_nome, '-') AS turma_nome, COALESCE(c.nome, ll.cardapio_nome, '-') AS cardapio_nome, COALESCE(c.tipo_refeicao, ll.tipo_refeicao, 'lanche') AS tipo_refeicao, a.nome AS aluno_nome, a.matricula AS aluno_matricula, a.numero_pasta AS aluno_numero_pasta FROM liberacoes_lanche ll LEFT JOIN alunos a ON a.id = ll.aluno_id LEFT JOIN turmas t ON t.id = a.turma_id LEFT JOIN cardapios c ON c.id = ll.cardapio_id WHERE COALESCE(t.nome, ll.turma_nome, '-') = $1 ORDER BY COALESCE(c.nome, ll.cardapio_nome, '-') ASC",
			wantArgs: []interface{}{"6A"},
		},
		{
			name:    "is true",
			table:   TableMenus,
			query:   "ativo=is.true",
			wantSQL: "SELECT * FROM cardapios WHERE ativo IS TRUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildListSQL(t, tt.table, tt.query)
			if sql != tt.wantSQL {
				t.Errorf("sql =\n  %s\nwant\n  %s", sql, tt.wantSQL)
			}
			if len(args) == 0 && len(tt.wantArgs) == 0 {
				return
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestParseListOptions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		query   string
		wantErr error
	}{
		{"unknown column", TableProducts, "preco=eq.1", apperrors.ErrUnknownColumn},
		{"hidden column", TableUsers, "password_hash=eq.x", apperrors.ErrUnknownColumn},
		{"unknown order column", TableProducts, "order=preco.asc", apperrors.ErrUnknownColumn},
		{"missing operator", TableProducts, "nome=Arroz", apperrors.ErrInvalidFilter},
		{"bad operator", TableProducts, "nome=like.Arr*", apperrors.ErrInvalidFilter},
		{"bad in", TableProducts, "nome=in.a,b", apperrors.ErrInvalidFilter},
		{"empty in", TableProducts, "nome=in.()", apperrors.ErrInvalidFilter},
		{"bad is", TableProducts, "nome=is.maybe", apperrors.ErrInvalidFilter},
		{"bad direction", TableProducts, "order=nome.up", apperrors.ErrInvalidFilter},
		{"bad limit", TableProducts, "limit=ten", apperrors.ErrInvalidFilter},
		{"negative offset", TableProducts, "offset=-1", apperrors.ErrInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			_, err := ParseListOptions(mustTable(t, tt.table), q)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseListOptions(%q) error = %v, want %v", tt.query, err, tt.wantErr)
			}
		})
	}
}

func TestParseListOptions_InValuesTrimmed(t *testing.T) {
	q, _ := url.ParseQuery(`status=in.( ativo, "suspenso" )`)
	opts, err := ParseListOptions(mustTable(t, TableStudents), q)
	if err != nil {
		t.Fatalf("ParseListOptions() error = %v", err)
	}
	want := []string{"ativo", "suspenso"}
	if len(opts.Filters) != 1 || !reflect.DeepEqual(opts.Filters[0].Values, want) {
		t.Errorf("filters = %+v, want values %v", opts.Filters, want)
	}
}

func TestSplitInList(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		want  []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"quoted comma", `"6º A, manhã",7º B`, []string{"6º A, manhã", "7º B"}},
		{"quoted parens", `"x (y)",z`, []string{"x (y)", "z"}},
		{"escaped quote", `"diz \"oi\"",b`, []string{`diz "oi"`, "b"}},
		{"escaped backslash", `"a\\b"`, []string{`a\b`}},
		{"quoted keeps spaces", `" a ", b `, []string{" a ", "b"}},
		{"empty quoted", `"",x`, []string{"", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitInList(tt.inner)
			if err != nil {
				t.Fatalf("splitInList(%q) error = %v", tt.inner, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitInList(%q) = %q, want %q", tt.inner, got, tt.want)
			}
		})
	}
}

func TestSplitInList_Malformed(t *testing.T) {
	for _, inner := range []string{`"open`, `"a"b,c`, `"a\`} {
		if _, err := splitInList(inner); err == nil {
			t.Errorf("splitInList(%q) error = nil", inner)
		}
	}

	q := url.Values{"nome": {`in.("open)`}}
	_, err := ParseListOptions(mustTable(t, TableClasses), q)
	if !errors.Is(err, apperrors.ErrInvalidFilter) {
		t.Errorf("ParseListOptions() error = %v, want ErrInvalidFilter", err)
	}
}
