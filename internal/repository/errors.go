package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound - запись не найдена или принадлежит другому консультанту.
	ErrNotFound = errors.New("record not found")
	// ErrConcurrentUpdate - запись изменилась после чтения (не совпала версия).
	ErrConcurrentUpdate = errors.New("record was modified concurrently")
	// ErrInUse - запись нельзя удалить, на неё ссылаются другие записи.
	ErrInUse = errors.New("record is referenced by other records")
	// ErrDuplicate - нарушено ограничение уникальности.
	ErrDuplicate = errors.New("duplicate value")
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// translate переводит ошибки драйвера в ошибки репозитория.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return ErrInUse
		case pgUniqueViolation:
			return ErrDuplicate
		}
	}
	return err
}
