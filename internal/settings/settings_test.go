package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	values map[string]string
	err    error
	calls  int
}

func (f *fakeLoader) LoadSettings(ctx context.Context) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.values, nil
}

func TestLoadsLazilyOnce(t *testing.T) {
	ctx := context.Background()
	loader := &fakeLoader{values: map[string]string{"chunk_size": "600"}}
	svc := NewService(loader)

	assert.Equal(t, 0, loader.calls)

	v, ok, err := svc.Get(ctx, "chunk_size")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "600", v)

	_, _, err = svc.Get(ctx, "chunk_size")
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
}

func TestMissingKey(t *testing.T) {
	svc := NewService(&fakeLoader{values: map[string]string{}})
	_, ok, err := svc.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshReloads(t *testing.T) {
	ctx := context.Background()
	loader := &fakeLoader{values: map[string]string{"model": "llama3.2"}}
	svc := NewService(loader)

	_, err := svc.All(ctx)
	require.NoError(t, err)

	loader.values = map[string]string{"model": "llama3.3"}
	svc.Refresh()

	v, ok, err := svc.Get(ctx, "model")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "llama3.3", v)
	assert.Equal(t, 2, loader.calls)
}

func TestLoaderErrorPropagates(t *testing.T) {
	svc := NewService(&fakeLoader{err: errors.New("db down")})
	_, err := svc.All(context.Background())
	assert.Error(t, err)
}
