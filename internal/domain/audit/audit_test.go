package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryNumbersPlaceholders(t *testing.T) {
	query, args := buildQuery("SELECT COUNT(1)", Filter{Action: ActionSettingsUpdate, ActorID: "ceo-1"})
	assert.Equal(t, "SELECT COUNT(1) FROM audit_events WHERE 1=1 AND action = $1 AND actor_id = $2", query)
	assert.Equal(t, []any{ActionSettingsUpdate, "ceo-1"}, args)

	query, args = buildQuery("SELECT id", Filter{})
	assert.Equal(t, "SELECT id FROM audit_events WHERE 1=1", query)
	assert.Empty(t, args)
}

func TestMarshalOptional(t *testing.T) {
	raw, err := marshalOptional(nil)
	assert.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = marshalOptional(map[string]int{"weight": 3})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"weight":3}`, string(raw))
}
