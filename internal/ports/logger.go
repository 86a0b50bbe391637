package ports

import "context"

// Logger is the leveled logging surface the rest of the module writes to.
// The optional fields map attaches key/value context to a single line;
// rendering is up to the implementation. Error takes the error separately
// from the message so call sites never format errors into log strings.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
