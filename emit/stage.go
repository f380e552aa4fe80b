package emit

// StageFlags carries the per-stage fitting decisions baked into the
// emitted expression at fit time (spec.md §4.1/§4.4): which
// coefficient layout to use and whether read depends on the parent's
// parallelism degree.
type StageFlags struct {
	StageID           int
	AllowParallel     bool
	ComputeUsesKD     bool // CanIntraParallel[1]: compute was fit on k*d rather than d
	ParentRelevant    bool // only meaningful when !AllowParallel
	ParentID          int  // -1 if no parent contributes to read time
}

const (
	costAlpha = 2.9225
	costBeta  = 0.02
	costScale = 1e5
)

// StageLatencyExpr builds this stage's latency contribution: the
// reduced closed form of spec.md §4.1, reading parameters from
// p[6*StageID .. 6*StageID+5] and decision variables from
// x[2*StageID] (d), x[2*StageID+1] (k).
func StageLatencyExpr(f StageFlags) Expr {
	i := f.StageID
	cold := PVar(6 * i)
	cx := PVar(6*i + 1)
	ckd := PVar(6*i + 2)
	clogx := PVar(6*i + 3)
	cx2 := PVar(6*i + 4)
	cconst := PVar(6*i + 5)

	d := Expr(XVar(2 * i))
	k := Expr(XVar(2*i + 1))

	if f.AllowParallel {
		var xExpr Expr
		if f.ComputeUsesKD {
			xExpr = Mul{k, d}
		} else {
			xExpr = d
		}
		return Sum{
			cold,
			Div{cx, d},
			Div{ckd, Mul{k, d}},
			Mul{clogx, Div{Log{xExpr}, xExpr}},
			Div{cx2, Mul{xExpr, xExpr}},
			cconst,
		}
	}

	terms := Sum{cold, Div{cx, k}}
	if f.ParentRelevant && f.ParentID >= 0 {
		parentD := XVar(2 * f.ParentID)
		terms = append(terms, Mul{ckd, parentD})
	}
	terms = append(terms, Mul{clogx, Div{Log{k}, k}}, Div{cx2, Mul{k, k}}, cconst)
	return terms
}

// StageCostExpr builds this stage's cost contribution:
// (T*k*d*alpha + beta*d) / 1e5, with d pinned to 1 when the stage is
// not parallel (spec.md §4.1 Cost prediction, constants preserved
// bit-faithfully).
func StageCostExpr(f StageFlags) Expr {
	i := f.StageID
	t := StageLatencyExpr(f)
	k := Expr(XVar(2*i + 1))

	var d Expr
	if f.AllowParallel {
		d = XVar(2 * i)
	} else {
		d = Const(1)
	}

	return Div{
		Sum{
			Mul{t, k, d, Const(costAlpha)},
			Mul{Const(costBeta), d},
		},
		Const(costScale),
	}
}
