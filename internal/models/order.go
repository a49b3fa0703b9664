package models

import (
	"database/sql"

	"frameshop/domain"
)

// Order maps an orders row onto domain.Order
type Order struct {
	ID   string       `db:"id"`
	Data domain.Order `db:"data"`
}

// StatusCount one row of the per-status aggregate.
type StatusCount struct {
	Status  string        `db:"status"`
	Count   int           `db:"count"`
	Revenue sql.NullInt64 `db:"revenue"`
}
