package repositories

import (
	"time"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/pkg/helpers"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// collectRecords reads every row into a Record, converting driver values
// into JSON-friendly ones. Columns repeated in a row keep the last value.
func collectRecords(rows pgx.Rows) ([]models.Record, error) {
	records, err := pgx.CollectRows(rows, rowToRecord)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

func collectOneRecord(rows pgx.Rows) (models.Record, error) {
	return pgx.CollectExactlyOneRow(rows, rowToRecord)
}

func rowToRecord(row pgx.CollectableRow) (models.Record, error) {
	values, err := row.Values()
	if err != nil {
		return nil, err
	}
	fields := row.FieldDescriptions()
	rec := make(models.Record, len(fields))
	for i, fd := range fields {
		rec[fd.Name] = renderValue(fd.DataTypeOID, values[i])
	}
	return rec, nil
}

// renderValue maps pgx's decoded representation of a column to the value the
// HTTP API returns for it.
func renderValue(oid uint32, v interface{}) interface{} {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		if oid == pgtype.DateOID {
			return x.Format(helpers.DateLayout)
		}
		return x
	case pgtype.InfinityModifier:
		return x.String()
	default:
		return v
	}
}
