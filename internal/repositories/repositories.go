package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/lib/pq"

	"github.com/jmoiron/sqlx"

	"frameshop/domain"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

type migrator interface {
	migrate(ctx context.Context) error
}

// Migrate creates every table used by the shop. Each repository constructor
// also migrates its own table, this is for the standalone migrate command.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, m := range []migrator{
		&ProductRepository{db: db},
		&OptionRepository{db: db},
		&OrderRepository{db: db},
		&BlogRepository{db: db},
	} {
		if err := m.migrate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func newBulkResult() domain.BulkResult {
	return domain.BulkResult{Updated: []string{}, Unchanged: []string{}, Failed: []domain.BulkFailure{}}
}
