package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/biblioteca/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Now)

	require.NoError(t, c.Set(ctx, "dashboard", []byte(`{"quotes":6}`), 0))

	got, err := c.Get(ctx, "dashboard")
	require.NoError(t, err)
	assert.JSONEq(t, `{"quotes":6}`, string(got))

	require.NoError(t, c.Delete(ctx, "dashboard"))

	_, err = c.Get(ctx, "dashboard")
	assert.True(t, domain.IsNotFound(err))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory(clock.Now)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	clock.t = clock.t.Add(59 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Second)
	_, err = c.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err))
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Now)
	value := []byte("abc")

	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestNoop(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, Noop{}.Set(ctx, "k", []byte("v"), 0))

	_, err := Noop{}.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{driver: ""},
		{driver: DriverNone},
		{driver: DriverMemory},
		{driver: "memcached", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			c, checker, err := Open(context.Background(), Config{Driver: tt.driver})
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, c)
			assert.Nil(t, checker)
		})
	}
}

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("BIBLIOTECA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BIBLIOTECA_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()

	r, err := NewRedis(ctx, Config{Addr: addr, Prefix: "biblioteca-test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, r.Delete(ctx, "k"))

	_, err = r.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, r.Check(ctx))
}
