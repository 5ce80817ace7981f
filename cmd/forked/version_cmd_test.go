package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/forkedapp/forked/internal/version"
)

func TestVersionCommand_Output(t *testing.T) {
	root := &cobra.Command{Use: "forked"}
	root.AddCommand(newVersionCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Equal(t, version.Long(), strings.TrimSpace(out.String()))
}
