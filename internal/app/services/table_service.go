package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/cantinaverde/cantina/internal/app/auth"
	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/app/repositories"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	pkgauth "github.com/cantinaverde/cantina/internal/pkg/auth"
	"github.com/cantinaverde/cantina/internal/pkg/dberrors"
	"github.com/cantinaverde/cantina/internal/pkg/helpers"
	"github.com/cantinaverde/cantina/internal/pkg/metrics"
	"github.com/cantinaverde/cantina/internal/pkg/validation"
	"github.com/cantinaverde/cantina/internal/pkg/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Tables whose inserts are pushed to realtime clients
var broadcastInserts = map[string]bool{
	repositories.TableReleases: true,
}

// TableService implements the generic CRUD dispatcher: table allow-list,
// permission check, write-side normalization and side effects.
type TableService struct {
	store     TableStore
	users     UserStore
	publisher Publisher
	hash      func(string) (string, error)
	logger    zerolog.Logger
}

// NewTableService creates a new TableService
func NewTableService(store TableStore, users UserStore, publisher Publisher, logger zerolog.Logger) *TableService {
	return &TableService{
		store:     store,
		users:     users,
		publisher: publisherOrNoop(publisher),
		hash:      pkgauth.HashPassword,
		logger:    logger,
	}
}

// CreateResult is the outcome of a POST: a single row for an object body or
// a one-element array, a list of rows for any other array
type CreateResult struct {
	Rows  []models.Record
	Batch bool
}

// Body returns the value to serialize in the response
func (r CreateResult) Body() interface{} {
	if r.Batch {
		return r.Rows
	}
	return r.Rows[0]
}

// resolve looks up table and checks that actor may run method on it
func (s *TableService) resolve(actor models.Actor, method, table string, payloadKeys []string) (*repositories.Table, error) {
	t, ok := repositories.LookupTable(table)
	if !ok {
		return nil, apperrors.NewCustomError(apperrors.ErrTableNotAllowed, fmt.Sprintf("table %s is not allowed", table))
	}
	if !auth.Allowed(actor.Role, method, table, payloadKeys) {
		return nil, apperrors.NewForbiddenError("permission denied")
	}
	return t, nil
}

// List returns the rows of table matching the PostgREST-style query
func (s *TableService) List(ctx context.Context, actor models.Actor, table string, query url.Values) ([]models.Record, error) {
	t, err := s.resolve(actor, http.MethodGet, table, nil)
	if err != nil {
		return nil, err
	}
	opts, err := repositories.ParseListOptions(t, query)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, t, opts)
}

// Get returns one row by id. Ids that are not UUIDs cannot exist.
func (s *TableService) Get(ctx context.Context, actor models.Actor, table, id string) (models.Record, error) {
	t, err := s.resolve(actor, http.MethodGet, table, nil)
	if err != nil {
		return nil, err
	}
	if !isUUID(id) {
		return nil, apperrors.ErrResourceNotFound
	}
	return s.store.GetByID(ctx, t, id)
}

// Create inserts one row (object body) or several rows (array body). Rows are
// inserted one after another; a failure leaves earlier rows in place.
func (s *TableService) Create(ctx context.Context, actor models.Actor, table string, body interface{}) (*CreateResult, error) {
	var items []interface{}
	batch := false
	var keys []string
	switch b := body.(type) {
	case nil:
	case map[string]interface{}:
		items = []interface{}{b}
		keys = models.Record(b).Keys()
	case []interface{}:
		items = b
		batch = len(b) != 1
	default:
		return nil, apperrors.NewValidationError("body must be an object or an array of objects")
	}

	t, err := s.resolve(actor, http.MethodPost, table, keys)
	if err != nil {
		return nil, err
	}

	// Validate every item before writing any of them
	type pending struct {
		data models.Record
		opts repositories.WriteOptions
	}
	var rows []pending
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok && item != nil {
			return nil, apperrors.NewValidationError("every item must be an object")
		}
		if len(obj) == 0 {
			continue
		}
		data, opts, err := s.prepareWrite(t, models.Record(obj))
		if err != nil {
			return nil, err
		}
		rows = append(rows, pending{data: data, opts: opts})
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyPayload
	}

	result := &CreateResult{Batch: batch}
	for _, p := range rows {
		created, err := s.store.Insert(ctx, t, p.data, p.opts)
		if err != nil {
			s.logger.Error().Err(err).Str("table", t.Name).Str("pgKind", dberrors.Kind(err)).Msg("Insert failed")
			return nil, err
		}
		result.Rows = append(result.Rows, created)
		if t.Name == repositories.TableReleases {
			metrics.ReleasesCreated.Inc()
		}
		if broadcastInserts[t.Name] {
			s.publisher.Publish(websocket.EventInsert, t.Name, created)
		}
	}
	return result, nil
}

// Update modifies the row id with the given fields
func (s *TableService) Update(ctx context.Context, actor models.Actor, table, id string, body map[string]interface{}) (models.Record, error) {
	payload := models.Record(body)
	t, err := s.resolve(actor, http.MethodPut, table, payload.Keys())
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, apperrors.ErrEmptyPayload
	}
	if !isUUID(id) {
		return nil, apperrors.ErrResourceNotFound
	}

	data, opts, err := s.prepareWrite(t, payload)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, t, id, data, opts)
	if err != nil && !apperrors.Is(err, apperrors.ErrResourceNotFound) {
		s.logger.Error().Err(err).Str("table", t.Name).Str("id", id).Str("pgKind", dberrors.Kind(err)).Msg("Update failed")
	}
	return updated, err
}

// Delete removes the row id. Deleting a user first detaches it from
// releases and stock movements.
func (s *TableService) Delete(ctx context.Context, actor models.Actor, table, id string) error {
	t, err := s.resolve(actor, http.MethodDelete, table, nil)
	if err != nil {
		return err
	}
	if !isUUID(id) {
		return apperrors.ErrResourceNotFound
	}

	if t.Name == repositories.TableUsers {
		err = s.users.DeleteUser(ctx, id)
	} else {
		err = s.store.Delete(ctx, t, id)
	}
	if err != nil && !apperrors.Is(err, apperrors.ErrResourceNotFound) {
		s.logger.Error().Err(err).Str("table", t.Name).Str("id", id).Str("pgKind", dberrors.Kind(err)).Msg("Delete failed")
	}
	return err
}

// prepareWrite applies the per-table normalization to a copy of payload:
// password hashing for users, date canonicalization, and menu activation.
func (s *TableService) prepareWrite(t *repositories.Table, payload models.Record) (models.Record, repositories.WriteOptions, error) {
	var opts repositories.WriteOptions
	data := payload.Clone()

	if t.Name == repositories.TableUsers {
		if pw, ok := data["password"]; ok {
			hash, err := s.hash(fmt.Sprint(pw))
			if err != nil {
				return nil, opts, fmt.Errorf("failed to hash password: %w", err)
			}
			delete(data, "password")
			data["password_hash"] = hash
		}
	}

	if err := checkColumns(t, data); err != nil {
		return nil, opts, err
	}

	if t.Name == repositories.TableStudents {
		if err := checkStudentCodes(data); err != nil {
			return nil, opts, err
		}
	}

	for _, col := range t.DateColumns {
		if v, ok := data[col]; ok {
			data[col] = helpers.NormalizeDate(v)
		}
	}

	if t.Name == repositories.TableMenus {
		if active, ok := data["ativo"].(bool); ok && active {
			opts.DeactivateOtherMenus = true
		}
	}
	return data, opts, nil
}

func checkColumns(t *repositories.Table, data models.Record) error {
	keys := data.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		if !t.HasColumn(k) {
			return apperrors.NewCustomError(apperrors.ErrUnknownColumn,
				fmt.Sprintf("unknown column %q for table %s", k, t.Name)).WithField(k)
		}
	}
	return nil
}

// checkStudentCodes enforces the card code formats when they are written
func checkStudentCodes(data models.Record) error {
	if v, ok := data["matricula"]; ok {
		if err := validation.Var("matricula", fmt.Sprint(v), "matricula"); err != nil {
			return err
		}
	}
	if v, ok := data["numero_pasta"]; ok && v != nil && v != "" {
		if err := validation.Var("numero_pasta", fmt.Sprint(v), "numero_pasta"); err != nil {
			return err
		}
	}
	return nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
