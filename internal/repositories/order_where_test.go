package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"frameshop/domain"
)

func TestOrderWhere(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	t.Run("empty filter", func(t *testing.T) {
		where, args := orderWhere(domain.OrderFilter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("all fields", func(t *testing.T) {
		where, args := orderWhere(domain.OrderFilter{
			Status: domain.StatusPaid,
			Query:  " 50%_off ",
			From:   from,
			To:     to,
		})
		assert.Equal(t, " WHERE status = $1"+
			" AND (id ILIKE $2 OR tracking_number ILIKE $2 OR email ILIKE $2 OR data->'customer'->>'name' ILIKE $2)"+
			" AND created_at >= $3 AND created_at < $4", where)
		assert.Equal(t, []interface{}{"paid", `%50\%\_off%`, from, to}, args)
	})

	t.Run("query only", func(t *testing.T) {
		where, args := orderWhere(domain.OrderFilter{Query: "anna"})
		assert.Contains(t, where, "$1")
		assert.NotContains(t, where, "$2")
		assert.Equal(t, []interface{}{"%anna%"}, args)
	})
}
