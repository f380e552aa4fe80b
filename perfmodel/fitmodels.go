package perfmodel

import "math"

// ioFunc(x; a, b) = a/x + b — read/write phase model (spec.md §4.1).
func ioFunc(x, a, b float64) float64 { return a/x + b }

// io2Func((x, p); a, b, c) = a/x + b*p + c — read phase model for
// stages where read may be dominated by parent fan-out.
func io2Func(x, p, a, b, c float64) float64 { return a/x + b*p + c }

// compFunc(x; a, b, c, d) = a/x + b*log(x)/x + c/x^2 + d — compute
// phase model.
func compFunc(x, a, b, c, d float64) float64 {
	return a/x + b*math.Log(x)/x + c/(x*x) + d
}

// ioModel fits ioFunc over a single independent variable x.
type ioModel struct {
	x, yv []float64
}

func (m *ioModel) numSamples() int { return len(m.x) }
func (m *ioModel) numParams() int  { return 2 }
func (m *ioModel) y(i int) float64 { return m.yv[i] }
func (m *ioModel) eval(p []float64, i int) float64 {
	return ioFunc(m.x[i], p[0], p[1])
}
func (m *ioModel) jacobianRow(p []float64, i int, row []float64) {
	x := m.x[i]
	row[0] = 1.0 / x
	row[1] = 1.0
}

// io2Model fits io2Func over independent variables (x, p).
type io2Model struct {
	x, p, yv []float64
}

func (m *io2Model) numSamples() int { return len(m.x) }
func (m *io2Model) numParams() int  { return 3 }
func (m *io2Model) y(i int) float64 { return m.yv[i] }
func (m *io2Model) eval(params []float64, i int) float64 {
	return io2Func(m.x[i], m.p[i], params[0], params[1], params[2])
}
func (m *io2Model) jacobianRow(params []float64, i int, row []float64) {
	row[0] = 1.0 / m.x[i]
	row[1] = m.p[i]
	row[2] = 1.0
}

// compModel fits compFunc over a single independent variable x.
type compModel struct {
	x, yv []float64
}

func (m *compModel) numSamples() int { return len(m.x) }
func (m *compModel) numParams() int  { return 4 }
func (m *compModel) y(i int) float64 { return m.yv[i] }
func (m *compModel) eval(p []float64, i int) float64 {
	return compFunc(m.x[i], p[0], p[1], p[2], p[3])
}
func (m *compModel) jacobianRow(p []float64, i int, row []float64) {
	x := m.x[i]
	row[0] = 1.0 / x
	row[1] = math.Log(x) / x
	row[2] = 1.0 / (x * x)
	row[3] = 1.0
}
