package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/domain/repository"
)

type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

const contactColumns = `id, first_name, last_name, email, phone, birthday, additional_data, owner_id`

func scanContact(row pgx.Row) (*entity.Contact, error) {
	c := &entity.Contact{}
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Birthday, &c.AdditionalData, &c.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func collectContacts(rows pgx.Rows) ([]entity.Contact, error) {
	defer rows.Close()
	out := make([]entity.Contact, 0)
	for rows.Next() {
		c := entity.Contact{}
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
			&c.Birthday, &c.AdditionalData, &c.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContactRepository) Create(ctx context.Context, c *entity.Contact) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (first_name, last_name, email, phone, birthday, additional_data, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, c.FirstName, c.LastName, c.Email, c.Phone, c.Birthday, c.AdditionalData, c.OwnerID)

	err := row.Scan(&c.ID)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]entity.Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE owner_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

func (r *ContactRepository) GetByID(ctx context.Context, id, ownerID int64) (*entity.Contact, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	return scanContact(row)
}

func (r *ContactRepository) Update(ctx context.Context, c *entity.Contact) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE contacts
		SET first_name = $1, last_name = $2, email = $3, phone = $4, birthday = $5, additional_data = $6
		WHERE id = $7 AND owner_id = $8
	`, c.FirstName, c.LastName, c.Email, c.Phone, c.Birthday, c.AdditionalData, c.ID, c.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := r.pool.Exec(ctx, `
		DELETE FROM contacts
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ContactRepository) Search(ctx context.Context, ownerID int64, query string, limit, offset int) ([]entity.Contact, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE owner_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY id
		LIMIT $3 OFFSET $4
	`, ownerID, pattern, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

// UpcomingBirthdays matches on the recurring (month, day) of the birthday.
// The window boundaries are computed in Go; when the window crosses the year
// end the match is the union of the two calendar segments.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, ownerID int64, today time.Time, days int) ([]entity.Contact, error) {
	start, end, wraps := birthdayWindow(today, days)

	cond := `to_char(birthday, 'MMDD') BETWEEN $2 AND $3`
	if wraps {
		cond = `(to_char(birthday, 'MMDD') >= $2 OR to_char(birthday, 'MMDD') <= $3)`
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE owner_id = $1 AND `+cond+`
		ORDER BY to_char(birthday, 'MMDD')
	`, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

// birthdayWindow returns the inclusive [start, end] month-day boundaries in
// "MMDD" form and whether the window wraps past December 31.
func birthdayWindow(today time.Time, days int) (start, end string, wraps bool) {
	last := today.AddDate(0, 0, days)
	start = monthDay(today)
	end = monthDay(last)
	return start, end, end < start
}

func monthDay(t time.Time) string {
	return fmt.Sprintf("%02d%02d", int(t.Month()), t.Day())
}

var _ repository.ContactRepository = (*ContactRepository)(nil)
