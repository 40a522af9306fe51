package netprobe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func TestIsNetworkUp_Dial(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p := New(srv.Listener.Addr().String(), time.Second, nil)
	assert.True(t, p.IsNetworkUp(context.Background()))

	srv.Close()
	assert.False(t, p.IsNetworkUp(context.Background()), "destino cerrado = sin red")
}

func TestIsNetworkUp_SinDestinoUsaInterfaces(t *testing.T) {
	p := New("", time.Second, nil)
	p.ifaces = func() ([]net.Interface, error) {
		return []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}}, nil
	}
	assert.False(t, p.IsNetworkUp(context.Background()), "solo loopback no cuenta")

	p.ifaces = func() ([]net.Interface, error) {
		return []net.Interface{{Name: "wlan0", Flags: net.FlagUp}}, nil
	}
	assert.True(t, p.IsNetworkUp(context.Background()))

	p.ifaces = func() ([]net.Interface, error) { return nil, errors.New("boom") }
	assert.False(t, p.IsNetworkUp(context.Background()))
}

func TestIsServerUp_TimeoutEsCaido(t *testing.T) {
	slow := healthFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	p := New("127.0.0.1:1", 50*time.Millisecond, slow)

	start := time.Now()
	assert.False(t, p.IsServerUp(context.Background()))
	assert.Less(t, time.Since(start), time.Second, "no bloquea más allá del timeout")

	p.health = healthFunc(func(context.Context) error { return nil })
	assert.True(t, p.IsServerUp(context.Background()))

	p.health = nil
	assert.False(t, p.IsServerUp(context.Background()))
}

func TestWatch_EmiteSoloCambios(t *testing.T) {
	var up atomic.Bool
	p := New("127.0.0.1:1", time.Second, nil)
	p.dial = func(context.Context, string, string) (net.Conn, error) {
		if up.Load() {
			c1, c2 := net.Pipe()
			_ = c2.Close()
			return c1, nil
		}
		return nil, errors.New("sin red")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := p.Watch(ctx, 10*time.Millisecond)

	require.False(t, <-ch, "primera lectura")
	up.Store(true)
	assert.True(t, <-ch)
	up.Store(false)
	assert.False(t, <-ch)

	cancel()
	for range ch {
	}
}
