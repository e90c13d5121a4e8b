package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el logger singleton de idmanager. Es idempotente:
// solo la primera llamada tiene efecto. La llaman los main de
// cmd/idmanager y cmd/migrate antes de armar el servidor; el resto del
// código llega al logger vía From(ctx) o L().
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el logger singleton.
// Si Init() no fue llamado, crea uno de desarrollo (dev, info) para
// que los tests y herramientas no necesiten bootstrap.
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Named retorna un logger con un nombre de componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// With retorna un logger con campos adicionales; los helpers de
// fields.go (Layer, Component, Op, UserID) son los campos que este
// servicio usa en services y controllers.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync flushea cualquier buffer pendiente.
// Debe llamarse con defer en main.go.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
