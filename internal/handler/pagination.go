package handler

import (
	"net/http"

	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/model"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// listQuery is the query string accepted by the seller and notification
// listings. Status only applies to sellers.
type listQuery struct {
	Limit  int                `schema:"limit"`
	Offset int                `schema:"offset"`
	Status model.SellerStatus `schema:"status"`
}

// parseListQuery clamps paging into range and rejects values that are not
// numbers or not a known seller status.
func parseListQuery(r *http.Request) (listQuery, error) {
	var q listQuery
	if err := formDecoder.Decode(&q, r.URL.Query()); err != nil {
		return listQuery{}, apperrors.ValidationError("Invalid query parameters").WithCause(err)
	}

	if q.Limit <= 0 || q.Limit > MaxLimit {
		q.Limit = DefaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Status != "" && !q.Status.Valid() {
		return listQuery{}, apperrors.InvalidInput("status", "unknown seller status")
	}
	return q, nil
}
