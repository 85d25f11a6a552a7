// Package repository is the MySQL data access layer.  Repositories return
// the sentinel errors of package model so that higher layers can tell
// "missing" from "taken" without knowing about SQL.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/activity-booking/internal/model"
)

const (
	mysqlLockTimeout   = 1205
	mysqlDeadlock      = 1213
	mysqlDupEntry      = 1062
	mysqlNoReferenced  = 1452
	mysqlCheckViolated = 3819
)

// mapErr converts driver errors into model sentinels.  what names the
// entity for the wrapped message.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return fmt.Errorf("%s already exists: %w", what, model.ErrConflict)
		case mysqlDeadlock, mysqlLockTimeout:
			return fmt.Errorf("%s is being changed concurrently: %w", what, model.ErrConflict)
		case mysqlNoReferenced:
			return fmt.Errorf("%s references a missing row: %w", what, model.ErrNotFound)
		case mysqlCheckViolated:
			return model.NewValidationError("", what+" violates a check constraint")
		}
	}
	return err
}
