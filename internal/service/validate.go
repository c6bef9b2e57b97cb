package service

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/util"
)

const (
	maxIdempotencyKeyLen = 255
	minPasswordLen       = 8
	maxProductNameLen    = 255
)

// ValidatePlaceOrder checks the request shape only. It never touches the store.
func ValidatePlaceOrder(in PlaceOrderInput) error {
	verr := &ValidationError{}
	if len(in.Items) == 0 {
		verr.add("items", "items must contain at least one entry")
	}
	for i, line := range in.Items {
		if line.ProductID <= 0 {
			verr.add(fieldAt("items", i, "productId"), "productId must be a positive integer")
		}
		if line.Quantity < 1 {
			verr.add(fieldAt("items", i, "quantity"), "quantity must be at least 1")
		}
	}
	if len(in.IdempotencyKey) > maxIdempotencyKeyLen {
		verr.add("idempotencyKey", "idempotencyKey must be at most 255 characters")
	}
	return verr.orNil()
}

// ValidateCredentials normalizes the email the way it is stored.
func ValidateCredentials(email, password string, checkLength bool) (string, error) {
	verr := &ValidationError{}
	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.add("email", "email must be an email")
	}
	if password == "" {
		verr.add("password", "password should not be empty")
	} else if checkLength && len(password) < minPasswordLen {
		verr.add("password", "password must be longer than or equal to 8 characters")
	}
	return email, verr.orNil()
}

func ValidateCreateProduct(in *CreateProductInput) error {
	verr := &ValidationError{}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		verr.add("name", "name should not be empty")
	} else if len(in.Name) > maxProductNameLen {
		verr.add("name", "name must be at most 255 characters")
	}
	in.Description = trimOptional(in.Description)
	if in.Price.IsNegative() {
		verr.add("price", "price must not be less than 0")
	}
	return verr.orNil()
}

func ValidateUpdateProduct(in *UpdateProductInput) error {
	verr := &ValidationError{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
		if name == "" {
			verr.add("name", "name should not be empty")
		} else if len(name) > maxProductNameLen {
			verr.add("name", "name must be at most 255 characters")
		}
	}
	in.Description = trimOptional(in.Description)
	if in.Price != nil && in.Price.IsNegative() {
		verr.add("price", "price must not be less than 0")
	}
	return verr.orNil()
}

// SalesFilter turns the admin query into a repository filter.
func (q SalesQuery) SalesFilter() (repo.SalesFilter, error) {
	verr := &ValidationError{}
	f := repo.SalesFilter{SortBy: repo.SortByCreatedAt, Desc: true}

	if q.Page < 1 {
		verr.add("page", "page must not be less than 1")
	}
	if q.Limit < 1 || q.Limit > util.MaxPageSize {
		verr.add("limit", "limit must be between 1 and 100")
	}
	f.Offset = (q.Page - 1) * q.Limit
	f.Limit = q.Limit

	switch q.SortBy {
	case "", repo.SortByCreatedAt:
	case repo.SortByTotal:
		f.SortBy = repo.SortByTotal
	default:
		verr.add("sortBy", "sortBy must be one of: createdAt, total")
	}

	switch strings.ToLower(q.Order) {
	case "", "desc":
	case "asc":
		f.Desc = false
	default:
		verr.add("order", "order must be one of: asc, desc")
	}

	if q.From != "" {
		t, ok := parseDate(q.From, false)
		if !ok {
			verr.add("from", "from must be a valid ISO 8601 date string")
		}
		f.From = &t
	}
	if q.To != "" {
		t, ok := parseDate(q.To, true)
		if !ok {
			verr.add("to", "to must be a valid ISO 8601 date string")
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		verr.add("to", "to must not be before from")
	}

	f.Email = strings.TrimSpace(q.UserName)
	if err := verr.orNil(); err != nil {
		return repo.SalesFilter{}, err
	}
	return f, nil
}

// parseDate accepts RFC3339 or a bare date. A bare end date covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func fieldAt(list string, i int, field string) string {
	return list + "[" + strconv.Itoa(i) + "]." + field
}
