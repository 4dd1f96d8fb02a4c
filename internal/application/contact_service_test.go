package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/domain/repository"
)

type fakeContactRepo struct {
	mu        sync.Mutex
	nextID    int64
	contacts  map[int64]*entity.Contact
	lastLimit int
	lastDays  int
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[int64]*entity.Contact{}}
}

func (r *fakeContactRepo) Create(_ context.Context, c *entity.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.contacts {
		if ex.Email == c.Email || ex.Phone == c.Phone {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.contacts[c.ID] = &cp
	return nil
}

func (r *fakeContactRepo) ListByOwner(_ context.Context, ownerID int64, limit, offset int) ([]entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	var out []entity.Contact
	for id := int64(1); id <= r.nextID; id++ {
		if c, ok := r.contacts[id]; ok && c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, id, ownerID int64) (*entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) Update(_ context.Context, c *entity.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.contacts[c.ID]
	if !ok || ex.OwnerID != c.OwnerID {
		return repository.ErrNotFound
	}
	for id, other := range r.contacts {
		if id != c.ID && (other.Email == c.Email || other.Phone == c.Phone) {
			return repository.ErrDuplicate
		}
	}
	cp := *c
	r.contacts[c.ID] = &cp
	return nil
}

func (r *fakeContactRepo) Delete(_ context.Context, id, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.contacts, id)
	return nil
}

func (r *fakeContactRepo) Search(_ context.Context, ownerID int64, query string, limit, offset int) ([]entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	q := strings.ToLower(query)
	var out []entity.Contact
	for id := int64(1); id <= r.nextID; id++ {
		c, ok := r.contacts[id]
		if !ok || c.OwnerID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(c.FirstName), q) ||
			strings.Contains(strings.ToLower(c.LastName), q) ||
			strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, *c)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeContactRepo) UpcomingBirthdays(_ context.Context, ownerID int64, today time.Time, days int) ([]entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastDays = days
	var out []entity.Contact
	for id := int64(1); id <= r.nextID; id++ {
		c, ok := r.contacts[id]
		if !ok || c.OwnerID != ownerID {
			continue
		}
		for i := 0; i <= days; i++ {
			d := today.AddDate(0, 0, i)
			if d.Month() == c.Birthday.Month() && d.Day() == c.Birthday.Day() {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

var _ repository.ContactRepository = (*fakeContactRepo)(nil)

func newContactFixture() (*ContactService, *fakeContactRepo) {
	repo := newFakeContactRepo()
	return NewContactService(repo, quietLogger(), nil, ""), repo
}

func bday(month time.Month, day int) time.Time {
	return time.Date(1990, month, day, 0, 0, 0, 0, time.UTC)
}

func TestContactCRUD(t *testing.T) {
	svc, _ := newContactFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, ContactInput{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@example.com",
		Phone:          "+100",
		Birthday:       bday(time.December, 10),
		AdditionalData: "mathematician",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "Ada", got.FirstName)
	require.Equal(t, "mathematician", got.AdditionalData)

	// Updates replace the full field set, empty strings included.
	updated, err := svc.Update(ctx, created.ID, 1, ContactInput{
		FirstName: "Ada",
		LastName:  "King",
		Email:     "ada@example.com",
		Phone:     "+100",
		Birthday:  bday(time.December, 10),
	})
	require.NoError(t, err)
	require.Equal(t, "King", updated.LastName)
	require.Empty(t, updated.AdditionalData)

	require.NoError(t, svc.Delete(ctx, created.ID, 1))
	_, err = svc.Get(ctx, created.ID, 1)
	require.ErrorIs(t, err, ErrContactNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID, 1), ErrContactNotFound)
}

func TestContactDuplicate(t *testing.T) {
	svc, _ := newContactFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, ContactInput{FirstName: "A", Email: "dup@example.com", Phone: "+1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, ContactInput{FirstName: "B", Email: "dup@example.com", Phone: "+2"})
	require.ErrorIs(t, err, ErrContactExists)

	other, err := svc.Create(ctx, 1, ContactInput{FirstName: "C", Email: "c@example.com", Phone: "+3"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, other.ID, 1, ContactInput{FirstName: "C", Email: "dup@example.com", Phone: "+3"})
	require.ErrorIs(t, err, ErrContactExists)
}

func TestContactOwnershipIsolation(t *testing.T) {
	svc, _ := newContactFixture()
	ctx := context.Background()

	mine, err := svc.Create(ctx, 1, ContactInput{FirstName: "Mine", Email: "mine@example.com", Phone: "+10"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, ContactInput{FirstName: "Theirs", Email: "theirs@example.com", Phone: "+20"})
	require.NoError(t, err)

	// Another owner's contact behaves as if it does not exist.
	_, err = svc.Get(ctx, mine.ID, 2)
	require.ErrorIs(t, err, ErrContactNotFound)
	require.ErrorIs(t, svc.Delete(ctx, mine.ID, 2), ErrContactNotFound)
	_, err = svc.Update(ctx, mine.ID, 2, ContactInput{FirstName: "X", Email: "x@example.com", Phone: "+99"})
	require.ErrorIs(t, err, ErrContactNotFound)

	list, err := svc.List(ctx, 2, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Theirs", list[0].FirstName)
}

func TestContactListClampsLimit(t *testing.T) {
	svc, repo := newContactFixture()
	ctx := context.Background()

	_, err := svc.List(ctx, 1, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 10, repo.lastLimit)

	_, err = svc.List(ctx, 1, 1000, 0)
	require.NoError(t, err)
	require.Equal(t, 10, repo.lastLimit)

	_, err = svc.List(ctx, 1, 25, 0)
	require.NoError(t, err)
	require.Equal(t, 25, repo.lastLimit)
}

func TestContactSearchFallsBackToSQL(t *testing.T) {
	svc, _ := newContactFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, ContactInput{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Phone: "+30"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, ContactInput{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Phone: "+31"})
	require.NoError(t, err)

	// No ES client configured, so the repository search serves the query.
	out, err := svc.Search(ctx, 1, "hopper", 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Grace", out[0].FirstName)

	out, err = svc.Search(ctx, 2, "hopper", 10, 0)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestUpcomingBirthdaysDefaultsToWeek(t *testing.T) {
	svc, repo := newContactFixture()
	ctx := context.Background()

	_, err := svc.UpcomingBirthdays(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 7, repo.lastDays)

	_, err = svc.UpcomingBirthdays(ctx, 1, -3)
	require.NoError(t, err)
	require.Equal(t, 7, repo.lastDays)

	_, err = svc.UpcomingBirthdays(ctx, 1, 30)
	require.NoError(t, err)
	require.Equal(t, 30, repo.lastDays)
}
