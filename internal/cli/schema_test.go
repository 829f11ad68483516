package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *cobra.Command {
	root := &cobra.Command{Use: "hrassistd", Short: "daemon"}
	AddHelpJSONFlag(root)
	root.PersistentFlags().String("output", "", "Output format")

	ingest := &cobra.Command{Use: "ingest", Short: "Load the corpus", Aliases: []string{"load"}}
	ingest.Flags().Bool("force-rebuild", false, "Ignore any persisted index")
	root.AddCommand(ingest)

	ticket := &cobra.Command{Use: "ticket <issue>", Short: "Open a ticket", RunE: func(*cobra.Command, []string) error { return nil }}
	ticket.Flags().String("user", "", "Employee id")
	_ = ticket.MarkFlagRequired("user")
	root.AddCommand(ticket)
	root.AddCommand(&cobra.Command{Use: "secret", Hidden: true})
	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(testTree())

	assert.Equal(t, "hrassistd", schema.Name)
	assert.False(t, schema.Runnable)
	require.Len(t, schema.Subcommands, 2)

	ingest := schema.Subcommands[0]
	assert.Equal(t, "ingest", ingest.Name)
	assert.Equal(t, "hrassistd ingest", ingest.Path)
	assert.Equal(t, []string{"load"}, ingest.Aliases)
	require.Len(t, ingest.Flags, 2)
	assert.Equal(t, "force-rebuild", ingest.Flags[0].Name)
	assert.Equal(t, "bool", ingest.Flags[0].Type)
	assert.Equal(t, "false", ingest.Flags[0].Default)
	assert.False(t, ingest.Flags[0].Inherited)
	assert.Equal(t, "output", ingest.Flags[1].Name)
	assert.True(t, ingest.Flags[1].Inherited)

	ticket := schema.Subcommands[1]
	assert.True(t, ticket.Runnable)
	require.NotEmpty(t, ticket.Flags)
	assert.Equal(t, "user", ticket.Flags[0].Name)
	assert.True(t, ticket.Flags[0].Required)
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf, testTree()))

	var decoded CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "hrassistd", decoded.Name)
	assert.NotContains(t, buf.String(), "help-json")
}

func TestFindTargetCommand(t *testing.T) {
	root := testTree()

	assert.Equal(t, "ingest", findTargetCommand(root, []string{"ingest"}).Name())
	assert.Equal(t, "ingest", findTargetCommand(root, []string{"load"}).Name())
	assert.Equal(t, "hrassistd", findTargetCommand(root, []string{"unknown"}).Name())
	assert.Equal(t, "hrassistd", findTargetCommand(root, nil).Name())
}
