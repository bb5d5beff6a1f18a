package ports

import (
	"context"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// ConsumerRepository persists consumer accounts. Every read path applies the
// not-deleted filter by construction; a soft-deleted consumer is invisible to
// all of these methods except SoftDelete itself.
type ConsumerRepository interface {
	// FindByEmail only matches non-deleted consumers with status Active.
	// Used exclusively by the login path.
	FindByEmail(ctx context.Context, email string) (*domain.Consumer, error)
	FindByID(ctx context.Context, id int64) (*domain.Consumer, error)
	List(ctx context.Context) ([]*domain.Consumer, error)
	// Create inserts a new consumer. Returns domain.ErrDuplicateIdentity when
	// the email is already used by a non-deleted consumer.
	Create(ctx context.Context, c *domain.Consumer) (*domain.Consumer, error)
	// Update replaces mutable fields. The update is revision-matched: when the
	// stored revision differs from c.Revision the call fails with
	// domain.ErrConcurrentModification.
	Update(ctx context.Context, c *domain.Consumer) error
	SoftDelete(ctx context.Context, id int64, by string) error
	UpdatePassword(ctx context.Context, id int64, newHash string) error
}
