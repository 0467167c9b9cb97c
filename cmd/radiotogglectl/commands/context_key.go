package commands

import (
	"fmt"

	"github.com/jmylchreest/radiotoggle/pkg/client"
	"github.com/spf13/cobra"
)

// ClientContextKey stores the client.ClientInterface in the command context.
var ClientContextKey = &struct{}{}

type loggerContextKey struct{}

func clientFromCmd(cmd *cobra.Command) (client.ClientInterface, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("client not found in context")
	}
	c, ok := ctx.Value(ClientContextKey).(client.ClientInterface)
	if !ok {
		return nil, fmt.Errorf("client not found in context")
	}
	return c, nil
}
