package calculator

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/chatstream/providers/tool"
)

// Name is the tool name advertised to the model.
const Name = "calculator"

// ErrDivisionByZero is returned for a "div" with B == 0.
var ErrDivisionByZero = errors.New("calculator: division by zero")

// Input holds the operands and the operation.
type Input struct {
	A  float64 `json:"a"  jsonschema:"description=First operand"`
	B  float64 `json:"b"  jsonschema:"description=Second operand"`
	Op string  `json:"op" jsonschema:"description=Operation,enum=add,enum=sub,enum=mul,enum=div"`
}

// Output carries the result.
type Output struct {
	Result float64 `json:"result"`
}

// New returns the calculator tool.
func New() *tool.Tool[Input, Output] {
	return tool.MustNewTool(Name, Calc,
		tool.WithDescription("Performs basic arithmetic (add, sub, mul, div) on two numbers."),
	)
}

// Calc applies req.Op to req.A and req.B.
func Calc(_ context.Context, req Input) (Output, error) {
	switch req.Op {
	case "add":
		return Output{Result: req.A + req.B}, nil
	case "sub":
		return Output{Result: req.A - req.B}, nil
	case "mul":
		return Output{Result: req.A * req.B}, nil
	case "div":
		if req.B == 0 {
			return Output{}, ErrDivisionByZero
		}
		return Output{Result: req.A / req.B}, nil
	default:
		return Output{}, fmt.Errorf("calculator: unknown operation %q", req.Op)
	}
}
