// Package netprobe verifica conectividad de red y disponibilidad del servidor remoto.
// Los fallos se reportan como "caído", nunca como error.
package netprobe

import (
	"context"
	"net"
	"time"
)

// HealthChecker verificación de salud del servidor remoto.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Probe sondeo de alcanzabilidad con timeout acotado.
type Probe struct {
	addr    string // host:port a marcar; vacío = cualquier interfaz activa no loopback
	timeout time.Duration
	health  HealthChecker
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
	ifaces  func() ([]net.Interface, error)
}

// New construye el probe. addr vacío verifica la red por interfaces activas,
// sin depender del servidor remoto.
func New(addr string, timeout time.Duration, health HealthChecker) *Probe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	d := &net.Dialer{}
	return &Probe{
		addr:    addr,
		timeout: timeout,
		health:  health,
		dial:    d.DialContext,
		ifaces:  net.Interfaces,
	}
}

// Addr destino del sondeo de red.
func (p *Probe) Addr() string { return p.addr }

// IsNetworkUp indica si hay red hacia el destino configurado.
func (p *Probe) IsNetworkUp(ctx context.Context) bool {
	if p.addr == "" {
		return p.hasActiveInterface()
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.dial(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (p *Probe) hasActiveInterface() bool {
	list, err := p.ifaces()
	if err != nil {
		return false
	}
	for _, iface := range list {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return true
		}
	}
	return false
}

// IsServerUp indica si el servidor responde su chequeo de salud dentro del timeout.
func (p *Probe) IsServerUp(ctx context.Context) bool {
	if p.health == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.health.Health(ctx) == nil
}

// Watch sondea la red cada every y emite el nuevo estado solo cuando cambia.
// La primera lectura siempre se emite. El canal se cierra al cancelar ctx.
func (p *Probe) Watch(ctx context.Context, every time.Duration) <-chan bool {
	if every <= 0 {
		every = 30 * time.Second
	}
	out := make(chan bool, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		var last, started bool
		for {
			up := p.IsNetworkUp(ctx)
			if !started || up != last {
				started, last = true, up
				select {
				case out <- up:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
