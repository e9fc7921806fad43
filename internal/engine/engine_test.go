package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseStartsInStarting(t *testing.T) {
	b := NewBase(WEBJS, Params{Name: "default"})
	assert.Equal(t, types.StatusStarting, b.Status())
	assert.True(t, b.Status().HasEngine())
	assert.Equal(t, "default", b.Name())
	assert.Equal(t, WEBJS, b.Engine())
}

func TestBaseSetStatusEmitsOnChange(t *testing.T) {
	b := NewBase(NOWEB, Params{Name: "default"})

	var got []types.Event
	b.Subscribe(func(evt types.Event) { got = append(got, evt) })

	b.SetStatus(types.StatusRunning)
	b.SetStatus(types.StatusRunning)
	b.SetStatus(types.StatusStopping)

	require.Len(t, got, 2)
	assert.Equal(t, types.EventSessionStatus, got[0].Event)
	assert.Equal(t, "default", got[0].Session)
	assert.Equal(t, NOWEB, got[0].Engine)
	assert.Equal(t, map[string]interface{}{"status": types.StatusRunning}, got[0].Payload)
	assert.Equal(t, map[string]interface{}{"status": types.StatusStopping}, got[1].Payload)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestBaseSubscribeOrderAndUnsubscribe(t *testing.T) {
	b := NewBase(VENOM, Params{Name: "default"})

	var order []string
	b.Subscribe(func(types.Event) { order = append(order, "a") })
	unsubB := b.Subscribe(func(types.Event) { order = append(order, "b") })
	b.Subscribe(func(types.Event) { order = append(order, "c") })

	b.Emit(types.EventMessage, nil)
	assert.Equal(t, []string{"a", "b", "c"}, order)

	unsubB()
	unsubB()
	order = nil
	b.Emit(types.EventMessage, nil)
	assert.Equal(t, []string{"a", "c"}, order)
}

func TestBaseConcurrentEmit(t *testing.T) {
	b := NewBase(WEBJS, Params{Name: "default"})

	var mu sync.Mutex
	count := 0
	b.Subscribe(func(types.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Emit(types.EventMessage, i)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, count)
}

func TestSelect(t *testing.T) {
	for _, name := range []string{"WEBJS", "noweb", " Venom "} {
		ctor, err := Select(name)
		require.NoError(t, err, name)
		assert.NotNil(t, ctor)
	}

	_, err := Select("telegram")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEngineNotFound))
	assert.Contains(t, err.Error(), "NOWEB, VENOM, WEBJS")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{NOWEB, VENOM, WEBJS}, Names())
}

func TestConstructorRequiresEndpoint(t *testing.T) {
	_, err := NewWebJS(Params{Name: "default"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
}

func TestBasePersistStopsAfterDetach(t *testing.T) {
	b := NewBase(WEBJS, Params{Name: "default"})
	writes := 0
	write := func() error {
		writes++
		return nil
	}

	ran, err := b.Persist(write)
	require.NoError(t, err)
	assert.True(t, ran)

	failing := errors.New("disk full")
	ran, err = b.Persist(func() error { return failing })
	assert.True(t, ran)
	assert.ErrorIs(t, err, failing)

	b.Detach()
	ran, err = b.Persist(write)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 1, writes)
	assert.True(t, b.Detached())
}
