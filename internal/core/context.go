package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "run_ip"
	ctxKeyUserAgent contextKey = "run_ua"
)

// ContextWithIPAddress adds the client IP address recorded on stored runs.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the client User-Agent recorded on stored runs.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// IPAddressFromContext extracts the IP address from ctx.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext extracts the User-Agent from ctx.
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
