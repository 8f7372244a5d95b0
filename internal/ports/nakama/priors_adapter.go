package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"janshi/internal/store"
)

const priorsCollection = "janshi_priors"

// PriorsAdapter keeps opponent priors in Nakama storage so advisor
// matches share reads across restarts without an external store.
type PriorsAdapter struct {
	nk runtime.NakamaModule
}

// NewPriorsAdapter creates a priors store backed by Nakama storage.
func NewPriorsAdapter(nk runtime.NakamaModule) *PriorsAdapter {
	return &PriorsAdapter{nk: nk}
}

var _ store.PriorsStore = (*PriorsAdapter)(nil)

func (a *PriorsAdapter) Get(ctx context.Context, key string) (store.Priors, bool, error) {
	if key == "" {
		return store.Priors{}, false, fmt.Errorf("priors key is required")
	}
	objs, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{
		{
			Collection: priorsCollection,
			Key:        key,
		},
	})
	if err != nil {
		return store.Priors{}, false, fmt.Errorf("read priors %q: %w", key, err)
	}
	if len(objs) == 0 {
		return store.Priors{}, false, nil
	}
	var p store.Priors
	if err := json.Unmarshal([]byte(objs[0].GetValue()), &p); err != nil {
		return store.Priors{}, false, fmt.Errorf("decode priors %q: %w", key, err)
	}
	return p, true, nil
}

func (a *PriorsAdapter) Put(ctx context.Context, key string, p store.Priors) error {
	if key == "" {
		return fmt.Errorf("priors key is required")
	}
	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode priors %q: %w", key, err)
	}
	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      priorsCollection,
			Key:             key,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("write priors %q: %w", key, err)
	}
	return nil
}

func (a *PriorsAdapter) Close() error { return nil }
