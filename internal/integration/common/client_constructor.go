package common

import (
	"github.com/sellershield/intake-backend/internal/config"
	pkgHTTP "github.com/sellershield/intake-backend/pkg/http"
	"go.uber.org/zap"
)

const userAgent = "sellershield-intake/1.0"

func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	opts := []pkgHTTP.ClientOption{
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
		pkgHTTP.WithUserAgent(userAgent),
	}
	// Zero durations keep the client defaults.
	if cfg.RequestTimeout > 0 {
		opts = append(opts, pkgHTTP.WithRequestTimeout(cfg.RequestTimeout))
	}
	if cfg.ConnTimeout > 0 {
		opts = append(opts, pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout))
	}
	if cfg.KeepAlive > 0 {
		opts = append(opts, pkgHTTP.WithClientKeepAlive(cfg.KeepAlive))
	}
	if cfg.IdleConnTimeout > 0 {
		opts = append(opts, pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout))
	}
	if cfg.ResponseHeaderTimeout > 0 {
		opts = append(opts, pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout))
	}

	return pkgHTTP.NewConnector(connCfg, opts...)
}
