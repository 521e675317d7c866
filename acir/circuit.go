// Package acir models the serialized circuit records emitted by the
// proving toolchain, at the level of detail the profiler consumes.
package acir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrRead reports that the record file could not be opened or read.
	ErrRead = errors.New("read circuit file")
	// ErrDecode reports that the record is not well-formed JSON.
	ErrDecode = errors.New("decode circuit record")
)

// Opcode type strings with special costing rules. Any other string is
// accepted and categorized as-is.
const (
	OpAssertZero       = "AssertZero"
	OpBlackBoxFunction = "BlackBoxFunction"
)

// Term is one witness reference inside an expression or a black-box
// argument list. Coefficients and other keys are irrelevant to costing.
type Term struct {
	Variable string `json:"variable"`
}

type Expression struct {
	Terms []Term `json:"terms"`
}

type Opcode struct {
	Type       string      `json:"type"`
	Expression *Expression `json:"expression,omitempty"`
	Function   string      `json:"function,omitempty"`
	Inputs     []Term      `json:"inputs,omitempty"`
	Outputs    []Term      `json:"outputs,omitempty"`
}

// Kind returns the opcode type string, or "Unknown" when the record
// carries no type at all.
func (op *Opcode) Kind() string {
	if op.Type == "" {
		return "Unknown"
	}
	return op.Type
}

// FunctionName returns the black-box function name, or "unknown" when
// the record carries none.
func (op *Opcode) FunctionName() string {
	if op.Function == "" {
		return "unknown"
	}
	return op.Function
}

// Circuit is one parsed record. All fields are optional on the wire;
// absent fields decode to zero values.
type Circuit struct {
	Opcodes      []Opcode                   `json:"opcodes"`
	PublicInputs []json.RawMessage          `json:"public_inputs"`
	ReturnValues []json.RawMessage          `json:"return_values"`
	Witnesses    map[string]json.RawMessage `json:"witnesses"`
}

// Load reads and decodes a circuit record from path.
func Load(path string) (*Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrRead, path, err)
	}
	var c Circuit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, path, err)
	}
	return &c, nil
}

// WitnessCount returns the witness cardinality of the circuit. When the
// record carries an explicit witness map its key count wins; otherwise
// the opcodes are scanned for witness names referenced by AssertZero
// expression terms and black-box inputs/outputs. Witnesses referenced
// anywhere else are not visible to this scan.
func (c *Circuit) WitnessCount() int {
	if c.Witnesses != nil {
		return len(c.Witnesses)
	}
	seen := make(map[string]struct{})
	collect := func(terms []Term) {
		for _, t := range terms {
			if t.Variable != "" {
				seen[t.Variable] = struct{}{}
			}
		}
	}
	for i := range c.Opcodes {
		op := &c.Opcodes[i]
		switch op.Type {
		case OpAssertZero:
			if op.Expression != nil {
				collect(op.Expression.Terms)
			}
		case OpBlackBoxFunction:
			collect(op.Inputs)
			collect(op.Outputs)
		}
	}
	return len(seen)
}
