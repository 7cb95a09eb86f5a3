// Package locker provides keyed mutual exclusion for read-validate-write
// sequences on a single entity.
//
// Keys are entity scoped, e.g. GroupKey(7) or ProgressKey(3, 12). Holding one
// key never blocks a caller on a different key.
//
//	unlock, err := l.Lock(ctx, locker.GroupKey(groupID))
//	if err != nil {
//		return err
//	}
//	defer unlock()
package locker

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the lock backend itself fails.
var ErrUnavailable = errors.New("lock backend unavailable")

// Locker acquires exclusive access to a key. Lock blocks until the key is
// free or ctx is done. The returned function releases the key and is safe to
// call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func GroupKey(groupID uint) string {
	return fmt.Sprintf("group:%d", groupID)
}

func ProgressKey(userID, bookID uint) string {
	return fmt.Sprintf("progress:%d:%d", userID, bookID)
}
