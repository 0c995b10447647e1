package cli

import (
	"context"
	"io"

	"lifeboard/internal/client"
)

// Context is handed to every command's Run method by kong.
type Context struct {
	Ctx    context.Context
	Client *client.Client
	Out    io.Writer
}
