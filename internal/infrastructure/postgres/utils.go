package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/pos-stock-core/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}

// isLockTimeout verifica si un error es un timeout de bloqueo de fila (55P03),
// producto del SET LOCAL lock_timeout de la transacción del asignador.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03" // lock_not_available
}

// translateError mapea códigos de Postgres a errores de dominio. La contención
// de bloqueo debe aflorar como transitoria y reintentable, distinta de la
// insuficiencia de stock.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case isLockTimeout(err):
		return domain.ErrContention
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	default:
		return err
	}
}
