package tool

import (
	"context"
	"fmt"
)

// NewEchoTool returns a tool that echoes its message argument back. Mostly
// useful in examples and tests.
func NewEchoTool() *FunctionTool {
	return NewFunctionTool(
		"echo",
		"Echoes the provided message back to the caller.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{
					"type":        "string",
					"description": "The message to echo back",
				},
			},
			"required": []any{"message"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return args["message"], nil
		},
	)
}

// NewCalculatorTool returns a tool performing basic arithmetic on two
// operands.
func NewCalculatorTool() *FunctionTool {
	return NewFunctionTool(
		"calculator",
		"Performs basic arithmetic. Supported operations: add, subtract, multiply, divide.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type":        "string",
					"description": "One of add, subtract, multiply, divide",
				},
				"a": map[string]any{
					"type":        "number",
					"description": "First operand",
				},
				"b": map[string]any{
					"type":        "number",
					"description": "Second operand",
				},
			},
			"required": []any{"operation", "a", "b"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			op, _ := args["operation"].(string)
			a, aok := toFloat(args["a"])
			b, bok := toFloat(args["b"])
			if !aok || !bok {
				return nil, fmt.Errorf("operands must be numbers")
			}

			switch op {
			case "add":
				return a + b, nil
			case "subtract":
				return a - b, nil
			case "multiply":
				return a * b, nil
			case "divide":
				if b == 0 {
					return nil, fmt.Errorf("division by zero")
				}
				return a / b, nil
			default:
				return nil, fmt.Errorf("unknown operation %q", op)
			}
		},
	)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
