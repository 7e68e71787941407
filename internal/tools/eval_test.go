package tools

import (
	"math"
	"testing"
)

func TestEvalExpression(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-5 + 3", -2},
		{"2 ^ 10", 1024},
		{"2 ^ 3 ^ 2", 512}, // right-associative
		{"10 % 3", 1},
		{"sqrt(16)", 4},
		{"abs(-3.5)", 3.5},
		{"round(2.6)", 3},
		{"floor(2.9)", 2},
		{"ceil(2.1)", 3},
		{"pi", math.Pi},
		{"2 * pi", 2 * math.Pi},
		{"1.5 + 2.25", 3.75},
		{"-(2 + 3)", -5},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpression(tt.expr)
			if err != nil {
				t.Fatalf("evalExpression(%q): %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("evalExpression(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalExpression_Errors(t *testing.T) {
	exprs := []string{
		"",
		"1 / 0",
		"2 +",
		"(1 + 2",
		"foo(3)",
		"os.exit(1)",
		"1 2",
		"sqrt(-1)",
	}

	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			if _, err := evalExpression(expr); err == nil {
				t.Errorf("evalExpression(%q) should fail", expr)
			}
		})
	}
}
