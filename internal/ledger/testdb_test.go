package ledger

import (
	"testing"

	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/dbtest"
)

func newTestDB(t *testing.T) *db.Client {
	t.Helper()
	return dbtest.Open(t, "ledger")
}
