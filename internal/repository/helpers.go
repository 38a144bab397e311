package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openmarket/market-server/internal/database"
)

// findOne runs a single-row query. A missing row is nil without error, which
// is also how a conditional UPDATE ... RETURNING reports that its WHERE
// clause did not match.
func findOne[T any](ctx context.Context, db database.DBTX, query string, args ...any) (*T, error) {
	var row T
	if err := db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// rowsMatched reports whether an UPDATE touched at least one row.
func rowsMatched(result sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
