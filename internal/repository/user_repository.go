// Package repository translates domain operations into record-store calls.
// Repositories are thin: no business rules live here, only the mapping
// between model structs and store documents.
package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mahmodz/points-rank-server/internal/model"
	"github.com/mahmodz/points-rank-server/internal/store"
)

type UserRepo struct {
	store store.Store
}

func NewUserRepo(s store.Store) *UserRepo { return &UserRepo{store: s} }

// Create writes the full user document under its uid.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	doc, err := toDoc(u)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, store.Users, u.UID, doc)
}

// GetByID fetches a user by uid. Returns store.ErrNotFound when absent.
func (r *UserRepo) GetByID(ctx context.Context, uid string) (model.User, error) {
	doc, err := r.store.Get(ctx, store.Users, uid)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := fromDoc(doc, &u); err != nil {
		return model.User{}, err
	}
	if u.UID == "" {
		u.UID = uid
	}
	return u, nil
}

// GetByDisplayName fetches a user by trimmed display name. Returns
// store.ErrNotFound when no user carries the name.
func (r *UserRepo) GetByDisplayName(ctx context.Context, name string) (model.User, error) {
	recs, err := r.store.QueryByField(ctx, store.Users, "displayName", strings.TrimSpace(name))
	if err != nil {
		return model.User{}, err
	}
	if len(recs) == 0 {
		return model.User{}, store.ErrNotFound
	}
	var u model.User
	if err := fromDoc(recs[0].Doc, &u); err != nil {
		return model.User{}, err
	}
	if u.UID == "" {
		u.UID = recs[0].ID
	}
	return u, nil
}

// List returns every user document.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	recs, err := r.store.List(ctx, store.Users)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(recs))
	for _, rec := range recs {
		var u model.User
		if err := fromDoc(rec.Doc, &u); err != nil {
			return nil, err
		}
		if u.UID == "" {
			u.UID = rec.ID
		}
		users = append(users, u)
	}
	return users, nil
}

// SetPoints overwrites the balance. The caller decides the new value;
// floors and increments are domain logic, not repository logic.
func (r *UserRepo) SetPoints(ctx context.Context, uid string, points int) error {
	return r.merge(ctx, uid, store.Doc{"points": points})
}

// SetDisplayName merge-updates the handle.
func (r *UserRepo) SetDisplayName(ctx context.Context, uid, name string) error {
	return r.merge(ctx, uid, store.Doc{"displayName": name})
}

// SetPIN merge-updates the admin-assigned PIN.
func (r *UserRepo) SetPIN(ctx context.Context, uid, pin string) error {
	return r.merge(ctx, uid, store.Doc{"pin": pin})
}

// Delete removes the user document.
func (r *UserRepo) Delete(ctx context.Context, uid string) error {
	return r.store.Delete(ctx, store.Users, uid)
}

func (r *UserRepo) merge(ctx context.Context, uid string, fields store.Doc) error {
	fields["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	return r.store.Merge(ctx, store.Users, uid, fields)
}

// toDoc / fromDoc push structs through their json tags so the document
// field names stay in one place (the model).
func toDoc(v any) (store.Doc, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var d store.Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func fromDoc(d store.Doc, v any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
