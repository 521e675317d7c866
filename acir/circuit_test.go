package acir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "circuit.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, ErrRead))

	_, err = Load(write(t, "{not json"))
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestLoadDefaultsMissingFields(t *testing.T) {
	c, err := Load(write(t, "{}"))
	require.NoError(t, err)
	assert.Empty(t, c.Opcodes)
	assert.Empty(t, c.PublicInputs)
	assert.Empty(t, c.ReturnValues)
	assert.Nil(t, c.Witnesses)
	assert.Equal(t, 0, c.WitnessCount())
}

func TestLoadFullRecord(t *testing.T) {
	c, err := Load(write(t, `{
		"opcodes": [
			{"type": "AssertZero", "expression": {"terms": [{"variable": "w1", "coefficient": 3}]}},
			{"type": "BlackBoxFunction", "function": "sha256",
			 "inputs": [{"variable": "w2"}], "outputs": [{"variable": "w3"}]},
			{"type": "MemoryInit"}
		],
		"public_inputs": [0, 1],
		"return_values": [2]
	}`))
	require.NoError(t, err)
	require.Len(t, c.Opcodes, 3)
	assert.Equal(t, "AssertZero", c.Opcodes[0].Kind())
	require.NotNil(t, c.Opcodes[0].Expression)
	assert.Equal(t, "w1", c.Opcodes[0].Expression.Terms[0].Variable)
	assert.Equal(t, "sha256", c.Opcodes[1].FunctionName())
	assert.Len(t, c.PublicInputs, 2)
	assert.Len(t, c.ReturnValues, 1)
}

func TestKindDefaults(t *testing.T) {
	op := Opcode{}
	assert.Equal(t, "Unknown", op.Kind())
	assert.Equal(t, "unknown", op.FunctionName())
}

func TestWitnessCountPrefersExplicitMap(t *testing.T) {
	c, err := Load(write(t, `{
		"opcodes": [{"type": "AssertZero", "expression": {"terms": [{"variable": "w1"}]}}],
		"witnesses": {"a": 1, "b": 2}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 2, c.WitnessCount())
}

func TestWitnessCountScansOpcodes(t *testing.T) {
	c, err := Load(write(t, `{
		"opcodes": [
			{"type": "AssertZero", "expression": {"terms": [{"variable": "w1"}, {"variable": "w2"}]}},
			{"type": "BlackBoxFunction", "function": "sha256",
			 "inputs": [{"variable": "w2"}], "outputs": [{"variable": "w3"}]},
			{"type": "MemoryOp", "inputs": [{"variable": "w9"}]}
		]
	}`))
	require.NoError(t, err)
	// w9 sits on an opcode type the scan does not inspect
	assert.Equal(t, 3, c.WitnessCount())
}
