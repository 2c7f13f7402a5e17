//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// GroupRecordRepository is the durable ledger of every group ever created.
// Keys are formatted as:
//
//	group:{key}                  -> group display name
//	member:{key}:{display_name}  -> join timestamp (nanoseconds, 19-digit padded)
//
// The padding keeps member records chronologically sorted under a prefix
// scan, same scheme as any time-ordered key in this codebase.
type GroupRecordRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewGroupRecordRepository(db *badger.DB, log *slog.Logger) GroupRecordRepository {
	return GroupRecordRepository{db: db, log: log}
}

// ReserveKey reports whether key is absent from the ledger. A store read
// failure reports the key as free: in-memory uniqueness still holds for
// this process, and cross-run uniqueness is best-effort by contract.
func (g GroupRecordRepository) ReserveKey(key string) bool {
	err := g.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(groupKey(key)))
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return true
	case err != nil:
		g.log.Warn("Group ledger unavailable during key reservation", "key", key, "error", err)
		return true
	default:
		return false
	}
}

// RecordGroup writes the durable group entry.
func (g GroupRecordRepository) RecordGroup(key, name string) error {
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(groupKey(key)), []byte(name))
	})
}

// RecordMember marks displayName as a (past or present) member of the group.
func (g GroupRecordRepository) RecordMember(key, displayName string) error {
	value := fmt.Sprintf("%019d", time.Now().UTC().UnixNano())
	return g.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(memberKey(key, displayName)), []byte(value))
	})
}

// RecordedName returns the stored display name for key, if recorded.
func (g GroupRecordRepository) RecordedName(key string) (string, error) {
	var name string
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(groupKey(key)))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			name = string(v)
			return nil
		})
	})
	return name, err
}

func groupKey(key string) string {
	return fmt.Sprintf("group:%s", key)
}

func memberKey(key, displayName string) string {
	return fmt.Sprintf("member:%s:%s", key, displayName)
}
