package postgres

import (
	"context"
	"database/sql"
	"roomdrop/internal/core/port"
)

type sqlUnitOfWork struct {
	db *sql.DB
	tx *sql.Tx
}

// NewUnitOfWork creates a UnitOfWork over db
func NewUnitOfWork(db *sql.DB) port.UnitOfWork {
	return &sqlUnitOfWork{db: db}
}

func (u *sqlUnitOfWork) querier() SQLQuerier {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *sqlUnitOfWork) RoomRepo() port.RoomRepository {
	return NewSQLRoomRepository(u.querier())
}

func (u *sqlUnitOfWork) ReservationRepo() port.ReservationRepository {
	return NewSQLReservationRepository(u.querier())
}

func (u *sqlUnitOfWork) ChunkRepo() port.ChunkRepository {
	return NewSQLChunkRepository(u.querier())
}

func (u *sqlUnitOfWork) ContentRepo() port.ContentRepository {
	return NewSQLContentRepository(u.querier())
}

func (u *sqlUnitOfWork) CredentialRepo() port.CredentialRepository {
	return NewSQLCredentialRepository(u.querier())
}

// Execute runs fn in a transaction. Nested calls reuse the running transaction.
func (u *sqlUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	uowWithTx := &sqlUnitOfWork{db: u.db, tx: tx}

	if err := fn(uowWithTx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
