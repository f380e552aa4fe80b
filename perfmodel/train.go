package perfmodel

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Train fits this stage's phase models from a profile record and the
// config grid used to produce it (spec.md §4.1 "Training procedure
// per stage"). grid[i] corresponds to profile epoch column i.
func (m *StagePerfModel) Train(sp StageProfile, grid []ConfigPair) error {
	numEpochs, numConfigs := numEpochsConfigs(sp.Cold)
	if numEpochs == 0 {
		return fmt.Errorf("%w: stage %s: not enough epochs", ErrFit, m.Name)
	}
	if numConfigs != len(grid) {
		return fmt.Errorf("perfmodel: stage %s: profile has %d config columns, grid has %d", m.Name, numConfigs, len(grid))
	}

	coldAvg, err := flattenAvg(sp.Cold)
	if err != nil {
		return fmt.Errorf("%w: stage %s cold: %v", ErrFit, m.Name, err)
	}
	m.ColdSamples = coldAvg

	yRead, err := flattenAvg(sp.Read)
	if err != nil {
		return fmt.Errorf("%w: stage %s read: %v", ErrFit, m.Name, err)
	}
	yCompute, err := flattenAvg(sp.Compute)
	if err != nil {
		return fmt.Errorf("%w: stage %s compute: %v", ErrFit, m.Name, err)
	}
	yWrite, err := flattenAvg(sp.Write)
	if err != nil {
		return fmt.Errorf("%w: stage %s write: %v", ErrFit, m.Name, err)
	}

	if m.AllowParallel {
		return m.trainAllowParallel(numEpochs, grid, yRead, yCompute, yWrite)
	}
	return m.trainNoParallel(numEpochs, grid, yRead, yCompute, yWrite)
}

func repeatGridD(grid []ConfigPair, numEpochs int) []float64 {
	out := make([]float64, 0, len(grid)*numEpochs)
	for e := 0; e < numEpochs; e++ {
		for _, g := range grid {
			out = append(out, float64(g.NumFunc))
		}
	}
	return out
}

func repeatGridKD(grid []ConfigPair, numEpochs int) []float64 {
	out := make([]float64, 0, len(grid)*numEpochs)
	for e := 0; e < numEpochs; e++ {
		for _, g := range grid {
			out = append(out, EqVCPU(g.MemoryMB, g.NumFunc))
		}
	}
	return out
}

func repeatGridK(grid []ConfigPair, numEpochs int) []float64 {
	out := make([]float64, 0, len(grid)*numEpochs)
	for e := 0; e < numEpochs; e++ {
		for _, g := range grid {
			out = append(out, EqVCPU(g.MemoryMB, 1))
		}
	}
	return out
}

// trainAllowParallel fits read/compute/write against both x=d and
// x=k*d, keeping whichever variant has the smaller mean absolute
// relative error (compute breaks ties with the smaller absolute mean
// relative error), per spec.md §4.1.
func (m *StagePerfModel) trainAllowParallel(numEpochs int, grid []ConfigPair, yRead, yCompute, yWrite []float64) error {
	d := repeatGridD(grid, numEpochs)
	kd := repeatGridKD(grid, numEpochs)

	fitIO := func(phaseName string, y []float64) (PhaseFit, bool, error) {
		pD, covD, errD := levenbergMarquardt(&ioModel{x: d, yv: y}, []float64{1, 1}, 200)
		if errD != nil {
			return PhaseFit{}, false, fmt.Errorf("%w: stage %s %s (d): %v", ErrFit, m.Name, phaseName, errD)
		}
		predD := evalIO(d, pD)
		errAbsD := meanAbsRelError(y, predD)

		pKD, covKD, errKD := levenbergMarquardt(&ioModel{x: kd, yv: y}, []float64{1, 1}, 200)
		if errKD != nil {
			return PhaseFit{}, false, fmt.Errorf("%w: stage %s %s (kd): %v", ErrFit, m.Name, phaseName, errKD)
		}
		predKD := evalIO(kd, pKD)
		errAbsKD := meanAbsRelError(y, predKD)

		logrus.Debugf("perfmodel: stage %s %s fit: d-err=%.4f kd-err=%.4f", m.Name, phaseName, errAbsD, errAbsKD)

		if errAbsD < errAbsKD {
			return PhaseFit{Params: pD, Cov: covD}, false, nil
		}
		return PhaseFit{Params: pKD, Cov: covKD}, true, nil
	}

	readFit, readKD, err := fitIO("read", yRead)
	if err != nil {
		return err
	}
	m.Read = readFit
	m.CanIntraParallel[0] = readKD

	writeFit, writeKD, err := fitIO("write", yWrite)
	if err != nil {
		return err
	}
	m.Write = writeFit
	m.CanIntraParallel[2] = writeKD

	// Compute: same selection, tie-break on absolute mean (signed) error.
	pD, covD, errD := levenbergMarquardt(&compModel{x: d, yv: yCompute}, []float64{1, 1, 1, 0}, 200)
	if errD != nil {
		return fmt.Errorf("%w: stage %s compute (d): %v", ErrFit, m.Name, errD)
	}
	predD := evalComp(d, pD)
	absErrD := meanAbsRelError(yCompute, predD)
	meanErrD := meanRelError(yCompute, predD)

	pKD, covKD, errKD := levenbergMarquardt(&compModel{x: kd, yv: yCompute}, []float64{1, 1, 1, 0}, 200)
	if errKD != nil {
		return fmt.Errorf("%w: stage %s compute (kd): %v", ErrFit, m.Name, errKD)
	}
	predKD := evalComp(kd, pKD)
	absErrKD := meanAbsRelError(yCompute, predKD)
	meanErrKD := meanRelError(yCompute, predKD)

	if absErrD < absErrKD || (absErrD == absErrKD && abs(meanErrD) < abs(meanErrKD)) {
		m.Compute = PhaseFit{Params: pD, Cov: covD}
		m.CanIntraParallel[1] = false
	} else {
		m.Compute = PhaseFit{Params: pKD, Cov: covKD}
		m.CanIntraParallel[1] = true
	}

	m.CX, m.CKDorD = 0, 0
	if m.CanIntraParallel[0] {
		m.CKDorD += m.Read.Params[0]
	} else {
		m.CX += m.Read.Params[0]
	}
	if m.CanIntraParallel[1] {
		m.CKDorD += m.Compute.Params[0]
	} else {
		m.CX += m.Compute.Params[0]
	}
	if m.CanIntraParallel[2] {
		m.CKDorD += m.Write.Params[0]
	} else {
		m.CX += m.Write.Params[0]
	}
	m.CLogX = m.Compute.Params[1]
	m.CX2 = m.Compute.Params[2]
	m.CConst = m.Read.Params[1] + m.Compute.Params[3] + m.Write.Params[1]
	return nil
}

// trainNoParallel fits read/compute/write on k = eq_vcpu(mem, 1)
// alone; read additionally tries f_io2 against (k, parent-fan-out)
// when the stage has a parent, keeping f_io2 only if it fits strictly
// better (spec.md §4.1, §9 Open Question (1)).
func (m *StagePerfModel) trainNoParallel(numEpochs int, grid []ConfigPair, yRead, yCompute, yWrite []float64) error {
	k := repeatGridK(grid, numEpochs)
	parentProxy := repeatGridD(grid, numEpochs) // grid's num_func column stands in for the swept parent degree

	p1, cov1, err := levenbergMarquardt(&ioModel{x: k, yv: yRead}, []float64{1, 1}, 200)
	if err != nil {
		return fmt.Errorf("%w: stage %s read (k): %v", ErrFit, m.Name, err)
	}
	pred1 := evalIO(k, p1)
	err1 := meanAbsRelError(yRead, pred1)

	if m.HasParent {
		p2, cov2, err2fit := levenbergMarquardt(&io2Model{x: k, p: parentProxy, yv: yRead}, []float64{1, 1, 1}, 200)
		if err2fit != nil {
			return fmt.Errorf("%w: stage %s read (k,p): %v", ErrFit, m.Name, err2fit)
		}
		pred2 := evalIO2(k, parentProxy, p2)
		err2 := meanAbsRelError(yRead, pred2)

		if err2 < err1 {
			m.ParentRelevant = true
			m.Read = PhaseFit{Params: p2, Cov: cov2}
		} else {
			m.ParentRelevant = false
			m.Read = PhaseFit{Params: p1, Cov: cov1}
		}
	} else {
		m.ParentRelevant = false
		m.Read = PhaseFit{Params: p1, Cov: cov1}
	}

	pComp, covComp, errComp := levenbergMarquardt(&compModel{x: k, yv: yCompute}, []float64{1, 1, 1, 0}, 200)
	if errComp != nil {
		return fmt.Errorf("%w: stage %s compute (k): %v", ErrFit, m.Name, errComp)
	}
	m.Compute = PhaseFit{Params: pComp, Cov: covComp}

	pWrite, covWrite, errWrite := levenbergMarquardt(&ioModel{x: k, yv: yWrite}, []float64{1, 1}, 200)
	if errWrite != nil {
		return fmt.Errorf("%w: stage %s write (k): %v", ErrFit, m.Name, errWrite)
	}
	m.Write = PhaseFit{Params: pWrite, Cov: covWrite}

	m.CX = m.Read.Params[0] + m.Compute.Params[0] + m.Write.Params[0]
	m.CConst = 0
	if m.ParentRelevant {
		m.CKDorD = m.Read.Params[1]
		m.CConst += m.Read.Params[2]
	} else {
		m.CKDorD = 0
		m.CConst += m.Read.Params[1]
	}
	m.CLogX = m.Compute.Params[1]
	m.CX2 = m.Compute.Params[2]
	m.CConst += m.Compute.Params[3] + m.Write.Params[1]
	return nil
}

func evalIO(x []float64, p []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = ioFunc(xi, p[0], p[1])
	}
	return out
}

func evalIO2(x, pvar []float64, p []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = io2Func(x[i], pvar[i], p[0], p[1], p[2])
	}
	return out
}

func evalComp(x []float64, p []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = compFunc(xi, p[0], p[1], p[2], p[3])
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
