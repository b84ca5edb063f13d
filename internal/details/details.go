// Package details persists full inspection records in the durable store,
// maintaining the dual-key invariant: a record saved under its QR token is
// also reachable through the canonical id, and vice versa.
package details

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fireguard/internal/cacheindex"
	"github.com/dmitrijs2005/fireguard/internal/common"
	"github.com/dmitrijs2005/fireguard/internal/models"
	"github.com/dmitrijs2005/fireguard/internal/store"
)

type DetailStore struct {
	store store.Store
	index *cacheindex.Index
}

func NewDetailStore(st store.Store, idx *cacheindex.Index) *DetailStore {
	return &DetailStore{store: st, index: idx}
}

// Save writes the record under its id key and, when a token is present, under
// the token key plus a token→id mapping. Every written detail key is touched
// in the TTL index, value first, index second.
func (d *DetailStore) Save(ctx context.Context, detail models.AssetDetail) error {
	if detail.ID == "" {
		return fmt.Errorf("%w: detail without id", common.ErrMalformedResponse)
	}

	b, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to encode detail: %w", err)
	}

	idKey := store.DetailByIDKey(detail.ID)
	if err := d.store.Set(ctx, idKey, string(b)); err != nil {
		return err
	}
	if err := d.index.Touch(ctx, idKey); err != nil {
		return err
	}

	if detail.Token == "" {
		return nil
	}

	tokenKey := store.DetailByTokenKey(detail.Token)
	if err := d.store.Set(ctx, tokenKey, string(b)); err != nil {
		return err
	}
	if err := d.index.Touch(ctx, tokenKey); err != nil {
		return err
	}
	return d.store.Set(ctx, store.TokenToIDKey(detail.Token), detail.ID)
}

// GetByID loads a record by canonical id and refreshes its index timestamp.
func (d *DetailStore) GetByID(ctx context.Context, id string) (*models.AssetDetail, error) {
	return d.get(ctx, store.DetailByIDKey(id))
}

// GetByToken loads a record by QR token. When the token key itself is absent
// it falls back through the token→id mapping.
func (d *DetailStore) GetByToken(ctx context.Context, token string) (*models.AssetDetail, error) {
	detail, err := d.get(ctx, store.DetailByTokenKey(token))
	if err == nil {
		return detail, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	id, err := d.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return d.GetByID(ctx, id)
}

// ResolveToken maps a QR token to the canonical asset id.
func (d *DetailStore) ResolveToken(ctx context.Context, token string) (string, error) {
	return d.store.Get(ctx, store.TokenToIDKey(token))
}

// CachedByToken returns every record currently cached under a token key.
// The rescue strategy uses it to rebuild a list without network access.
func (d *DetailStore) CachedByToken(ctx context.Context) ([]models.AssetDetail, error) {
	keys, err := d.store.Keys(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.AssetDetail
	for _, key := range keys {
		if store.TokenFromDetailKey(key) == "" {
			continue
		}
		raw, err := d.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var detail models.AssetDetail
		if err := json.Unmarshal([]byte(raw), &detail); err != nil {
			continue
		}
		out = append(out, detail)
	}
	return out, nil
}

func (d *DetailStore) get(ctx context.Context, key string) (*models.AssetDetail, error) {
	raw, err := d.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var detail models.AssetDetail
	if err := json.Unmarshal([]byte(raw), &detail); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}

	// read-refresh keeps actively viewed records out of the purge set
	if err := d.index.Touch(ctx, key); err != nil {
		return nil, err
	}
	return &detail, nil
}
