package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-telemetry/internal/models"
)

func newTestJournal(t *testing.T) *Journal {
	journal, err := NewJournal(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestJournalRecordAndDeletePriceTask(t *testing.T) {
	journal := newTestJournal(t)

	task := models.PriceTask{
		TaskID:    "t1",
		UserID:    "u1",
		Tokens:    []string{"BTC-USDT", "ETH-USDT"},
		TradeType: models.TradeTypeSpot,
		Exchange:  models.ExchangeBinance,
		TimeProp:  &models.TimeProperty{IntervalMs: 500},
		ProcessID: 7,
	}
	require.NoError(t, journal.RecordPriceTask(task))

	count, err := journal.CountPriceTasks("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Resubmission overwrites, not duplicates.
	require.NoError(t, journal.RecordPriceTask(task))
	count, err = journal.CountPriceTasks("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, journal.DeletePriceTask("u1", "t1"))
	count, err = journal.CountPriceTasks("u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestJournalProgressTaskFields(t *testing.T) {
	journal := newTestJournal(t)

	task := models.PriceTask{
		TaskID:      "p1",
		UserID:      "u2",
		Tokens:      []string{"DOGE-USDT"},
		TradeType:   models.TradeTypeSpot,
		Exchange:    models.ExchangeKucoin,
		PercentProp: &models.PercentProperty{Percent: -25, Direction: models.DirectionDown},
	}
	require.NoError(t, journal.RecordPriceTask(task))

	count, err := journal.CountPriceTasks("u2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJournalAccountMonitorOmitsCredentials(t *testing.T) {
	journal := newTestJournal(t)

	task := models.AccountTask{
		TaskID: "m1",
		UserID: "u3",
		Credential: models.AccountCredential{
			UserID: "u3", APIKey: "secret-api-key", SecretKey: "very-secret",
		},
		Exchange:  models.ExchangeOkx,
		Operation: models.OperationAdd,
	}
	require.NoError(t, journal.RecordAccountMonitor(task))

	// The schema has no credential columns; verify the row landed.
	var count int
	err := journal.db.QueryRow(`SELECT COUNT(*) FROM account_monitors WHERE user_id = ?`, "u3").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJournalDeleteMissingRowIsNoop(t *testing.T) {
	journal := newTestJournal(t)
	assert.NoError(t, journal.DeletePriceTask("nobody", "nothing"))
}
