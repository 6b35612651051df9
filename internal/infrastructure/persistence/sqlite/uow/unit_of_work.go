package uow

import (
	"context"

	"gorm.io/gorm"

	"klasboek/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm. Event writes run through
// it so the repository picks the transaction out of the context.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTx opens a transaction and stashes it in the callback's context, where
// ClassEventRepository.dbFromContext finds it.
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
}
