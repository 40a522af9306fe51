package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env    string    // development -> consola legible; production -> JSON
	Level  string    // trace, debug, info, warn, error
	Output io.Writer // opcional; por defecto os.Stdout

	// ErrorSink recibe, fuera de la goroutine que loguea, cada evento warn o superior.
	// Se usa para persistir el log de diagnóstico local.
	ErrorSink SinkFunc
}

// Record evento entregado al ErrorSink.
type Record struct {
	Time    time.Time
	Level   string // ERROR o WARNING
	Message string
}

// SinkFunc destino de los eventos warn/error.
type SinkFunc func(Record)

// Logger wrapper sobre zerolog para inyección y consistencia.
type Logger struct {
	zl   zerolog.Logger
	sink *asyncSink
}

// New crea un logger estructurado. En development usa salida legible; en production JSON.
func New(cfg Config) *Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	level := parseLevel(cfg.Level)
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()

	l := &Logger{}
	if cfg.ErrorSink != nil {
		l.sink = newAsyncSink(cfg.ErrorSink, 256)
		zl = zl.Hook(l.sink)
	}
	l.zl = zl

	// Redirigir el logger global de zerolog para librerías que lo usen
	log.Logger = zl

	return l
}

// Nop logger que descarta todo; útil en tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Trace, Debug, Info, Warn, Error delegados a zerolog.
func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With crea un sublogger con campos fijos.
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Component devuelve un logger hijo con el campo component fijado. Comparte el sink.
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger(), sink: l.sink}
}

// Zerolog devuelve el logger interno por si se necesita la API directa.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

type persistedKey struct{}

// Persisted marca ctx para que los eventos logueados con .Ctx(ctx) no lleguen al
// ErrorSink. Lo usa quien ya registró el evento en el log de diagnóstico.
func Persisted(ctx context.Context) context.Context {
	return context.WithValue(ctx, persistedKey{}, true)
}

func isPersisted(e *zerolog.Event) bool {
	if e == nil {
		return false
	}
	ctx := e.GetCtx()
	return ctx != nil && ctx.Value(persistedKey{}) != nil
}

// Close vacía los eventos pendientes hacia el sink y detiene su goroutine.
func (l *Logger) Close() {
	if l.sink != nil {
		l.sink.close()
	}
}

// asyncSink hook de zerolog que entrega eventos a un SinkFunc en una goroutine propia.
// Si el buffer está lleno el evento se descarta; el log principal no se bloquea nunca.
type asyncSink struct {
	fn   SinkFunc
	ch   chan Record
	done chan struct{}
	once sync.Once
	mu   sync.RWMutex
	shut bool
}

func newAsyncSink(fn SinkFunc, size int) *asyncSink {
	s := &asyncSink{fn: fn, ch: make(chan Record, size), done: make(chan struct{})}
	go s.loop()
	return s
}

func (s *asyncSink) loop() {
	defer close(s.done)
	for rec := range s.ch {
		s.fn(rec)
	}
}

// Run implementa zerolog.Hook.
func (s *asyncSink) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if isPersisted(e) {
		return
	}
	var lvl string
	switch {
	case level >= zerolog.ErrorLevel && level <= zerolog.PanicLevel:
		lvl = "ERROR"
	case level == zerolog.WarnLevel:
		lvl = "WARNING"
	default:
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.shut {
		return
	}
	select {
	case s.ch <- Record{Time: time.Now(), Level: lvl, Message: msg}:
	default:
	}
}

func (s *asyncSink) close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.shut = true
		close(s.ch)
		s.mu.Unlock()
		<-s.done
	})
}
