package di

import (
	"net/http"

	"schemagraph/infrastructure/config"

	"go.uber.org/zap"
)

// Container holds the assembled application
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Handler http.Handler
}
