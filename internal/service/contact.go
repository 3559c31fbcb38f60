package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

var (
	ErrFirstNameRequired = errors.New("first_name is required")
	ErrLastNameRequired  = errors.New("last_name is required")
	ErrInvalidBirthday   = errors.New("birthday must be formatted as YYYY-MM-DD")
	ErrContactNotFound   = errors.New("contact not found")
)

const (
	defaultPageSize    = 10
	maxPageSize        = 500
	birthdayWindowDays = 7
)

// ContactStore is the persistence interface the contact service operates on.
// Implementations must scope every operation to the owning user.
type ContactStore interface {
	Create(ctx context.Context, contact *model.Contact) error
	GetByID(ctx context.Context, userID, contactID int64) (*model.Contact, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Contact, error)
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, userID, contactID int64) error
	Search(ctx context.Context, userID int64, query string) ([]model.Contact, error)
	ListWithBirthdays(ctx context.Context, userID int64) ([]model.Contact, error)
}

// ContactService handles address book business logic.
type ContactService struct {
	contacts ContactStore
}

// NewContactService creates a new ContactService.
func NewContactService(contacts ContactStore) *ContactService {
	return &ContactService{contacts: contacts}
}

// Create adds a contact to the user's address book.
func (s *ContactService) Create(ctx context.Context, userID int64, req model.ContactRequest) (model.ContactResponse, error) {
	contact, err := contactFromRequest(userID, req)
	if err != nil {
		return model.ContactResponse{}, err
	}

	if err := s.contacts.Create(ctx, contact); err != nil {
		return model.ContactResponse{}, err
	}

	return contactResponse(contact), nil
}

// Get returns a single contact owned by the user.
func (s *ContactService) Get(ctx context.Context, userID, contactID int64) (model.ContactResponse, error) {
	contact, err := s.contacts.GetByID(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return model.ContactResponse{}, ErrContactNotFound
		}
		return model.ContactResponse{}, err
	}

	return contactResponse(contact), nil
}

// List returns a page of the user's contacts. The limit is clamped to
// [1, 500] with a default of 10; negative offsets are treated as zero.
func (s *ContactService) List(ctx context.Context, userID int64, limit, offset int) ([]model.ContactResponse, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	contacts, err := s.contacts.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return contactResponses(contacts), nil
}

// Update replaces a contact's fields. The contact must exist and belong to
// the user.
func (s *ContactService) Update(ctx context.Context, userID, contactID int64, req model.ContactRequest) (model.ContactResponse, error) {
	existing, err := s.contacts.GetByID(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return model.ContactResponse{}, ErrContactNotFound
		}
		return model.ContactResponse{}, err
	}

	contact, err := contactFromRequest(userID, req)
	if err != nil {
		return model.ContactResponse{}, err
	}
	contact.ID = existing.ID
	contact.CreatedAt = existing.CreatedAt

	if err := s.contacts.Update(ctx, contact); err != nil {
		return model.ContactResponse{}, err
	}

	return contactResponse(contact), nil
}

// Delete permanently removes a contact owned by the user.
func (s *ContactService) Delete(ctx context.Context, userID, contactID int64) error {
	if err := s.contacts.Delete(ctx, userID, contactID); err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return ErrContactNotFound
		}
		return err
	}
	return nil
}

// Search returns the user's contacts matching the query by name or email.
func (s *ContactService) Search(ctx context.Context, userID int64, query string) ([]model.ContactResponse, error) {
	contacts, err := s.contacts.Search(ctx, userID, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}

	return contactResponses(contacts), nil
}

// UpcomingBirthdays returns the user's contacts whose next birthday falls
// within the next seven days, soonest first. Feb 29 birthdays count as
// Mar 1 in non-leap years.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID int64) ([]model.ContactResponse, error) {
	contacts, err := s.contacts.ListWithBirthdays(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	type upcoming struct {
		contact model.Contact
		days    int
	}
	var hits []upcoming
	for _, c := range contacts {
		if c.Birthday == nil {
			continue
		}
		days := daysUntilBirthday(*c.Birthday, now)
		if days <= birthdayWindowDays {
			hits = append(hits, upcoming{contact: c, days: days})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].days < hits[j].days })

	out := make([]model.ContactResponse, 0, len(hits))
	for _, h := range hits {
		out = append(out, contactResponse(&h.contact))
	}
	return out, nil
}

// daysUntilBirthday returns how many whole days remain until the next
// occurrence of the birthday, counting from the calendar day of ref.
// A birthday today is 0. time.Date normalizes Feb 29 to Mar 1 in non-leap
// years, which also handles the Dec to Jan wrap.
func daysUntilBirthday(birthday, ref time.Time) int {
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	next := time.Date(refDay.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(refDay) {
		next = time.Date(refDay.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	}

	return int(next.Sub(refDay).Hours() / 24)
}

func contactFromRequest(userID int64, req model.ContactRequest) (*model.Contact, error) {
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, ErrFirstNameRequired
	}
	if strings.TrimSpace(req.LastName) == "" {
		return nil, ErrLastNameRequired
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, ErrEmailRequired
	}

	contact := &model.Contact{
		UserID:      userID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Notes:       req.Notes,
	}

	if req.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			return nil, ErrInvalidBirthday
		}
		contact.Birthday = &birthday
	}

	return contact, nil
}

func contactResponse(c *model.Contact) model.ContactResponse {
	resp := model.ContactResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Birthday != nil {
		resp.Birthday = c.Birthday.Format("2006-01-02")
	}
	return resp
}

func contactResponses(contacts []model.Contact) []model.ContactResponse {
	out := make([]model.ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, contactResponse(&contacts[i]))
	}
	return out
}
