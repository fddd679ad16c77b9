package dump

import (
	"context"
	"io"
)

// Backend is the narrow interface over the database tooling the engine
// consumes: export a database as a SQL byte stream, import one back, and a
// connectivity preflight.
type Backend interface {
	Export(ctx context.Context, database, user, password string, w io.Writer) error
	Import(ctx context.Context, database, user, password string, r io.Reader) error
	Ping(ctx context.Context, database, user, password string) error
}
