// Package emit builds the objective/constraint expressions over
// decision variables that the PCP solver consumes (spec.md §4.4).
//
// Per the Design Notes in spec.md §9, this does not generate and
// `import` source text the way the original implementation's
// generate_func_code does: it builds a small tagged expression tree
// (Expr) that is interpreted directly against a decision vector x and
// a parameter vector p. WriteGo additionally renders the same tree as
// the human-readable "emitted functions file" artifact of spec.md §6,
// which is a convenience, not something this program parses back in.
package emit

import (
	"fmt"
	"io"
	"math"
)

// Expr is a node of the symbolic expression tree. Implementations must
// be pure functions of the decision vector x and parameter vector p —
// no hidden state — matching the "referentially transparent" emitter
// requirement of spec.md §4.1.
type Expr interface {
	Eval(x, p []float64) float64
	WriteGo(w io.Writer)
}

// Const is a literal value.
type Const float64

func (c Const) Eval(x, p []float64) float64 { return float64(c) }
func (c Const) WriteGo(w io.Writer)          { fmt.Fprintf(w, "%g", float64(c)) }

// XVar references x[idx], a decision-vector entry.
type XVar int

func (v XVar) Eval(x, p []float64) float64 { return x[int(v)] }
func (v XVar) WriteGo(w io.Writer)          { fmt.Fprintf(w, "x[%d]", int(v)) }

// PVar references p[idx], a parameter-vector entry.
type PVar int

func (v PVar) Eval(x, p []float64) float64 { return p[int(v)] }
func (v PVar) WriteGo(w io.Writer)          { fmt.Fprintf(w, "p[%d]", int(v)) }

// Sum is the n-ary sum of its terms.
type Sum []Expr

func (s Sum) Eval(x, p []float64) float64 {
	var total float64
	for _, e := range s {
		total += e.Eval(x, p)
	}
	return total
}
func (s Sum) WriteGo(w io.Writer) {
	io.WriteString(w, "(")
	for i, e := range s {
		if i > 0 {
			io.WriteString(w, " + ")
		}
		e.WriteGo(w)
	}
	io.WriteString(w, ")")
}

// Mul is the n-ary product of its factors.
type Mul []Expr

func (m Mul) Eval(x, p []float64) float64 {
	total := 1.0
	for _, e := range m {
		total *= e.Eval(x, p)
	}
	return total
}
func (m Mul) WriteGo(w io.Writer) {
	io.WriteString(w, "(")
	for i, e := range m {
		if i > 0 {
			io.WriteString(w, " * ")
		}
		e.WriteGo(w)
	}
	io.WriteString(w, ")")
}

// Div is a/b.
type Div struct{ A, B Expr }

func (d Div) Eval(x, p []float64) float64 { return d.A.Eval(x, p) / d.B.Eval(x, p) }
func (d Div) WriteGo(w io.Writer) {
	io.WriteString(w, "(")
	d.A.WriteGo(w)
	io.WriteString(w, " / ")
	d.B.WriteGo(w)
	io.WriteString(w, ")")
}

// Sub is a-b.
type Sub struct{ A, B Expr }

func (s Sub) Eval(x, p []float64) float64 { return s.A.Eval(x, p) - s.B.Eval(x, p) }
func (s Sub) WriteGo(w io.Writer) {
	io.WriteString(w, "(")
	s.A.WriteGo(w)
	io.WriteString(w, " - ")
	s.B.WriteGo(w)
	io.WriteString(w, ")")
}

// Log is the natural logarithm of its operand.
type Log struct{ A Expr }

func (l Log) Eval(x, p []float64) float64 { return math.Log(l.A.Eval(x, p)) }
func (l Log) WriteGo(w io.Writer) {
	io.WriteString(w, "math.Log(")
	l.A.WriteGo(w)
	io.WriteString(w, ")")
}

// Max2 is the max of two expressions. The path and cost builders in
// this package do not use it.
type Max2 struct{ A, B Expr }

func (m Max2) Eval(x, p []float64) float64 { return math.Max(m.A.Eval(x, p), m.B.Eval(x, p)) }
func (m Max2) WriteGo(w io.Writer) {
	io.WriteString(w, "math.Max(")
	m.A.WriteGo(w)
	io.WriteString(w, ", ")
	m.B.WriteGo(w)
	io.WriteString(w, ")")
}
