package repository

import (
	"context"
	"time"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
)

// ContactRepository defines owner-scoped contact persistence. Every read and
// write filters by owner id; a contact belonging to another owner behaves as
// if it does not exist.
type ContactRepository interface {
	Create(ctx context.Context, c *entity.Contact) error
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]entity.Contact, error)
	GetByID(ctx context.Context, id, ownerID int64) (*entity.Contact, error)
	Update(ctx context.Context, c *entity.Contact) error
	Delete(ctx context.Context, id, ownerID int64) error
	Search(ctx context.Context, ownerID int64, query string, limit, offset int) ([]entity.Contact, error)
	// UpcomingBirthdays matches contacts whose (month, day) falls within
	// [today, today+days] on the recurring calendar, including the
	// December -> January wraparound.
	UpcomingBirthdays(ctx context.Context, ownerID int64, today time.Time, days int) ([]entity.Contact, error)
}
