package admin

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frameshop/domain"
)

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("paid", "  smith ", "2024-03-01", "2024-03-31")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPaid, f.Status)
	assert.Equal(t, "smith", f.Query)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), f.To, "to is inclusive")

	empty, err := ParseFilter("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFilter{}, empty)
}

func TestParseFilterErrors(t *testing.T) {
	cases := []struct {
		name                    string
		status, from, to, param string
	}{
		{name: "status", status: "lost", param: "status"},
		{name: "from", from: "yesterday", param: "from"},
		{name: "to", to: "2024-13-01", param: "to"},
		{name: "reversed", from: "2024-03-02", to: "2024-03-01", param: "to"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFilter(tc.status, "", tc.from, tc.to)
			var fe *FilterError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.param, fe.Param)
		})
	}
}
