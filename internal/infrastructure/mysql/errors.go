package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"viewora-deals/internal/domain"
)

const (
	erDupEntry        = 1062
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

// translateErr maps driver errors onto the domain taxonomy. A duplicate key
// is a uniqueness conflict; a lock wait timeout or deadlock means the caller
// lost a race and is reported the same way.
func translateErr(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case erDupEntry, erLockWaitTimeout, erLockDeadlock:
			return domain.ErrConflict
		}
	}
	return err
}
