// Command almetool decodes a hex-encoded ALME primitive and prints its
// fields, as a developer utility over the in-scope ALME codec — not the
// platform CLI, which is out of scope here.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/broadband-mesh/al1905/alme"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var asResponse bool

	cmd := &cobra.Command{
		Use:   "almetool <hex>",
		Short: "Decode a hex-encoded ALME primitive and print its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("decoding hex argument: %w", err)
			}

			var p alme.Primitive
			if asResponse {
				p, err = alme.ParseResponse(buf)
			} else {
				p, err = alme.ParseRequest(buf)
			}
			if err != nil {
				return fmt.Errorf("parsing ALME primitive: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "type: %s\n", p.Type())
			alme.Visit(p, func(name, format string, value interface{}) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: "+format+"\n", name, value)
			})
			return nil
		},
	}

	cmd.Flags().BoolVar(&asResponse, "response", false, "parse as a response/confirm primitive instead of a request/query")
	return cmd
}
