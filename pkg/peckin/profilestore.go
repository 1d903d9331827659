package peckin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/peckin/peckin/backend/go-services/pkg/logger"
)

// UsersCollection holds one ProfileDocument per user, keyed by user id.
const UsersCollection = "users"

// ProfileDocument is a user's profile record.
type ProfileDocument struct {
	EmplID    string   `json:"emplID" validate:"omitempty,max=32"`
	FirstName string   `json:"first_name" validate:"required,max=100"`
	LastName  string   `json:"last_name" validate:"max=100"`
	Major     []string `json:"major" validate:"dive,max=100"`
	Minor     []string `json:"minor" validate:"dive,max=100"`
	Year      string   `json:"year" validate:"max=16"`
}

// Complete reports whether the profile has its required field. An empty
// first name counts as missing.
func (d *ProfileDocument) Complete() bool {
	return d != nil && d.FirstName != ""
}

// ProfileStore is the document store as the detail flow uses it.
type ProfileStore interface {
	Get(ctx context.Context, collection, id string) (*ProfileDocument, error)
	Set(ctx context.Context, collection, id string, data interface{}) error
}

// ProfileStoreGateway reads and writes documents through the backend
// document API as the provider's signed-in user.
type ProfileStoreGateway struct {
	transport
	tokens TokenSource
}

func NewProfileStoreGateway(p *HTTPProvider) *ProfileStoreGateway {
	return &ProfileStoreGateway{transport: p.transport, tokens: p}
}

type documentResponse struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

func storeError(op string, err error) *StoreError {
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, ErrSignedOut) {
		return &StoreError{Kind: StorePermissionDenied, Op: op, Err: err}
	}
	var ae *apiError
	if errors.As(err, &ae) {
		switch {
		case ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden:
			return &StoreError{Kind: StorePermissionDenied, Op: op, Err: err}
		case ae.Status >= 500:
			return &StoreError{Kind: StoreNotConnected, Op: op, Err: err}
		}
		return &StoreError{Kind: StoreUnknown, Op: op, Err: err}
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &StoreError{Kind: StoreNotConnected, Op: op, Err: err}
	}
	return &StoreError{Kind: StoreUnknown, Op: op, Err: err}
}

func (s *ProfileStoreGateway) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	tok, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	return s.do(ctx, method, path, body, tok, out)
}

func docPath(collection, id string) string {
	p := "/api/v1/collections/" + url.PathEscape(collection)
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

// Get returns the document at (collection, id), or nil when none exists.
func (s *ProfileStoreGateway) Get(ctx context.Context, collection, id string) (*ProfileDocument, error) {
	var resp documentResponse
	err := s.call(ctx, http.MethodGet, docPath(collection, id), nil, &resp)
	if err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.Status == http.StatusNotFound && ae.Code == "not-found" {
			return nil, nil
		}
		se := storeError("get", err)
		logger.Errorf("Error getting document %s/%s: %v", collection, id, se)
		return nil, se
	}
	doc := &ProfileDocument{}
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, doc); err != nil {
			se := &StoreError{Kind: StoreUnknown, Op: "get", Err: fmt.Errorf("decode %s/%s: %w", collection, id, err)}
			logger.Errorf("Error getting document: %v", se)
			return nil, se
		}
	}
	return doc, nil
}

// Create stores data under a server-assigned id and returns it.
func (s *ProfileStoreGateway) Create(ctx context.Context, collection string, data interface{}) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := s.call(ctx, http.MethodPost, docPath(collection, ""), data, &resp); err != nil {
		se := storeError("create", err)
		logger.Errorf("Error creating document in %s: %v", collection, se)
		return "", se
	}
	return resp.ID, nil
}

// Set overwrites the whole document at (collection, id).
func (s *ProfileStoreGateway) Set(ctx context.Context, collection, id string, data interface{}) error {
	if err := s.call(ctx, http.MethodPut, docPath(collection, id), data, nil); err != nil {
		se := storeError("set", err)
		logger.Errorf("Error setting document %s/%s: %v", collection, id, se)
		return se
	}
	return nil
}
