package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"strings"

	"inventory-analytics/config"
	"inventory-analytics/logger"
)

type ctxLoggerKey struct{}
type ctxClientIPKey struct{}
type ctxWebEndpointKey struct{}
type ctxWorkspaceKey struct{}

func withLogger(ctx context.Context, log logger.Logger) (context.Context, error) {
	if log.Logger == nil {
		return ctx, errors.New("logger is nil")
	}
	return context.WithValue(ctx, ctxLoggerKey{}, log), nil
}

func GetLoggerFromContext(ctx context.Context) (logger.Logger, bool) {
	log, ok := ctx.Value(ctxLoggerKey{}).(logger.Logger)
	return log, ok
}

// GetLoggerFromRequest returns the request's logger, or the app logger when
// none was stored.
func GetLoggerFromRequest(req *http.Request) logger.Logger {
	if log, ok := GetLoggerFromContext(req.Context()); ok {
		return log
	}
	return logger.New(config.GetLogger())
}

func withClientIP(ctx context.Context, ip string) (context.Context, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ctx, errors.New("cannot parse client IP: " + err.Error())
	}
	return context.WithValue(ctx, ctxClientIPKey{}, addr.Unmap()), nil
}

func GetRequestIPFromContext(ctx context.Context) (netip.Addr, bool) {
	ip, ok := ctx.Value(ctxClientIPKey{}).(netip.Addr)
	return ip, ok && ip.IsValid()
}

func GetRequestIPFromRequestContext(req *http.Request) (netip.Addr, bool) {
	return GetRequestIPFromContext(req.Context())
}

func withWebEndpointConfig(ctx context.Context, endpoint *config.WebEndpointConfig) (context.Context, error) {
	if endpoint == nil {
		return ctx, errors.New("web endpoint config is nil")
	}
	return context.WithValue(ctx, ctxWebEndpointKey{}, endpoint), nil
}

func GetWebEndpointConfigFromRequestContext(req *http.Request) (*config.WebEndpointConfig, bool) {
	endpoint, ok := req.Context().Value(ctxWebEndpointKey{}).(*config.WebEndpointConfig)
	return endpoint, ok && endpoint != nil
}

func WithWorkspace(ctx context.Context, workspace *config.Workspace) context.Context {
	return context.WithValue(ctx, ctxWorkspaceKey{}, workspace)
}

func GetWorkspaceFromRequestContext(req *http.Request) (*config.Workspace, bool) {
	workspace, ok := req.Context().Value(ctxWorkspaceKey{}).(*config.Workspace)
	return workspace, ok && workspace != nil
}
