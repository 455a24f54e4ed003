package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNotifyOrder(t *testing.T) {
	l := NewList[int](zap.NewNop())

	var got []string
	l.Subscribe(func(v int) { got = append(got, "a") })
	l.Subscribe(func(v int) { got = append(got, "b") })
	l.Subscribe(func(v int) { got = append(got, "c") })

	l.Notify(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPanicIsolation(t *testing.T) {
	l := NewList[int](zap.NewNop())

	var after int
	l.Subscribe(func(v int) { panic("boom") })
	l.Subscribe(func(v int) { after = v })

	assert.NotPanics(t, func() { l.Notify(42) })
	assert.Equal(t, 42, after, "subscribers after a panicking one must still be notified")
}

func TestUnsubscribe(t *testing.T) {
	l := NewList[string](zap.NewNop())

	var count int
	unsub := l.Subscribe(func(string) { count++ })
	l.Subscribe(func(string) { count++ })

	l.Notify("x")
	assert.Equal(t, 2, count)

	unsub()
	unsub() // second call is a no-op
	l.Notify("y")
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, l.Len())
}
