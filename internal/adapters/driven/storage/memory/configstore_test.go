package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(map[string]any{"index.backend": "memory"})

	assert.Equal(t, "memory", store.GetString("index.backend"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("key1", "original"))
	require.NoError(t, store.Set("key1", "updated"))

	val, ok := store.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "updated", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"int":        42,
		"int64":      int64(7),
		"float":      float64(3),
		"int_str":    " 64 ",
		"bool":       true,
		"bool_str":   "true",
		"bad_int":    "many",
		"slice":      []string{"a", "b"},
		"any_slice":  []any{"x", 1, "y"},
		"not_string": 5,
	})

	assert.Equal(t, 42, store.GetInt("int"))
	assert.Equal(t, 7, store.GetInt("int64"))
	assert.Equal(t, 3, store.GetInt("float"))
	assert.Equal(t, 64, store.GetInt("int_str"))
	assert.Equal(t, 0, store.GetInt("bad_int"))
	assert.Equal(t, 0, store.GetInt("missing"))

	assert.True(t, store.GetBool("bool"))
	assert.True(t, store.GetBool("bool_str"))
	assert.False(t, store.GetBool("missing"))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("slice"))
	assert.Equal(t, []string{"x", "y"}, store.GetStringSlice("any_slice"))
	assert.Nil(t, store.GetStringSlice("int"))

	assert.Equal(t, "", store.GetString("not_string"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore(map[string]any{"b": 1, "a": 2})

	assert.Equal(t, []string{"a", "b"}, store.Keys())
}

func TestConfigStore_SaveLoadNoop(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("counter")
		}()
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}
