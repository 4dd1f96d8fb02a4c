package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/domain/repository"
)

// ContactService is the owner-scoped address book. Every operation takes the
// owner id from the authenticated user; a contact that exists under another
// owner is indistinguishable from one that does not exist.
type ContactService struct {
	Contacts repository.ContactRepository
	Logger   *logrus.Logger

	// Optional search index; when nil, search runs against postgres.
	ES      *elasticsearch.Client
	ESIndex string
}

func NewContactService(contacts repository.ContactRepository, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *ContactService {
	return &ContactService{Contacts: contacts, Logger: logger, ES: es, ESIndex: esIndex}
}

// ContactInput carries the full field set; updates replace all fields.
type ContactInput struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Birthday       time.Time
	AdditionalData string
}

func (s *ContactService) Create(ctx context.Context, ownerID int64, in ContactInput) (*entity.Contact, error) {
	c := &entity.Contact{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Birthday:       in.Birthday,
		AdditionalData: in.AdditionalData,
		OwnerID:        ownerID,
	}
	if err := s.Contacts.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrContactExists
		}
		return nil, err
	}
	s.indexContact(ctx, c)
	return c, nil
}

func (s *ContactService) List(ctx context.Context, ownerID int64, limit, offset int) ([]entity.Contact, error) {
	limit = clampLimit(limit)
	return s.Contacts.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *ContactService) Get(ctx context.Context, id, ownerID int64) (*entity.Contact, error) {
	c, err := s.Contacts.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *ContactService) Update(ctx context.Context, id, ownerID int64, in ContactInput) (*entity.Contact, error) {
	c := &entity.Contact{
		ID:             id,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Birthday:       in.Birthday,
		AdditionalData: in.AdditionalData,
		OwnerID:        ownerID,
	}
	if err := s.Contacts.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrContactNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrContactExists
		}
		return nil, err
	}
	s.indexContact(ctx, c)
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, id, ownerID int64) error {
	if err := s.Contacts.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContactNotFound
		}
		return err
	}
	s.deleteFromIndex(ctx, id)
	return nil
}

// Search matches first/last name and email. With an ES client configured the
// query runs against the index (filtered by owner); otherwise, or on any ES
// failure, it falls back to the SQL ILIKE search.
func (s *ContactService) Search(ctx context.Context, ownerID int64, query string, limit, offset int) ([]entity.Contact, error) {
	limit = clampLimit(limit)
	if s.ES != nil && s.ESIndex != "" {
		if out, err := s.searchES(ctx, ownerID, query, limit, offset); err == nil {
			return out, nil
		} else if s.Logger != nil {
			s.Logger.WithError(err).Warn("es search failed, falling back to sql")
		}
	}
	return s.Contacts.Search(ctx, ownerID, query, limit, offset)
}

// UpcomingBirthdays returns contacts whose birthday (month, day) falls within
// the next `days` days, counted from today inclusive.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, ownerID int64, days int) ([]entity.Contact, error) {
	if days <= 0 {
		days = 7
	}
	return s.Contacts.UpcomingBirthdays(ctx, ownerID, time.Now(), days)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 10
	}
	return limit
}

type contactDoc struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  string `json:"birthday"`
	Note      string `json:"note,omitempty"`
	OwnerID   int64  `json:"owner_id"`
}

func (s *ContactService) indexContact(ctx context.Context, c *entity.Contact) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := contactDoc{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Birthday:  c.Birthday.Format("2006-01-02"),
		Note:      c.AdditionalData,
		OwnerID:   c.OwnerID,
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: formatID(c.ID), Body: strings.NewReader(string(b)), Refresh: "false"}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(cctx, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("contact_id", c.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("contact_id", c.ID).Warn("es index response error")
	}
}

func (s *ContactService) deleteFromIndex(ctx context.Context, id int64) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: formatID(id)}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(cctx, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("contact_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

func (s *ContactService) searchES(ctx context.Context, ownerID int64, query string, limit, offset int) ([]entity.Contact, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  query,
						"fields": []string{"first_name", "last_name", "email^2"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"owner_id": ownerID},
				},
			},
		},
		"from": offset,
		"size": limit,
	}
	b, _ := json.Marshal(body)

	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(cctx),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, errors.New("es search: " + res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source contactDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.Contact, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		bd, _ := time.Parse("2006-01-02", h.Source.Birthday)
		out = append(out, entity.Contact{
			ID:             h.Source.ID,
			FirstName:      h.Source.FirstName,
			LastName:       h.Source.LastName,
			Email:          h.Source.Email,
			Phone:          h.Source.Phone,
			Birthday:       bd,
			AdditionalData: h.Source.Note,
			OwnerID:        h.Source.OwnerID,
		})
	}
	return out, nil
}
