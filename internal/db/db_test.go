package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Deleting a message cascades into read_statuses, so the notify function
// fires there with TG_OP = 'DELETE' and no NEW row. The branch must read
// OLD on that path or the cascade aborts with a plpgsql error.
func TestNotifyFunctionHandlesReadStatusDeletes(t *testing.T) {
	idx := strings.Index(notifyFunction, "'read_statuses'")
	require.GreaterOrEqual(t, idx, 0)

	branch := notifyFunction[idx:]
	if end := strings.Index(branch, "ELSIF"); end >= 0 {
		branch = branch[:end]
	}

	assert.Contains(t, branch, "TG_OP = 'DELETE'")
	assert.Contains(t, branch, "OLD.message_id")
	assert.Contains(t, branch, "OLD.user_id")
}

func TestNotifyFunctionCoversEveryAuditedTable(t *testing.T) {
	for _, table := range []string{"messages", "room_participants", "read_statuses", "user_bans"} {
		assert.Contains(t, notifyFunction, "'"+table+"'")
	}
}
