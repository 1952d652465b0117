package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guardOptions struct {
	Output  string `json:"output" jsonschema:"description=Directory for transcripts"`
	MaxSize int    `json:"max_size,string,omitempty"`
	Banned  string `json:"banned,omitempty"`
}

func TestGenerateSchema_SimpleStruct(t *testing.T) {
	schema, err := GenerateSchema(guardOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, schema)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(schema, &decoded))

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "output")
	assert.Contains(t, props, "max_size")
	assert.Contains(t, string(schema), "Directory for transcripts")
}

func TestGenerateSchema_Nil(t *testing.T) {
	schema, err := GenerateSchema(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(schema))
}

func TestUsage(t *testing.T) {
	type opts struct {
		Output  string `json:"output"`
		Verbose bool   `json:"verbose"`
	}
	assert.Equal(t, "output=<string> verbose=<boolean>", Usage(&opts{}))
	assert.Empty(t, Usage(nil))
}
