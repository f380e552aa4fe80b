package billing

// TransferType names which managed service a stage's input/output
// transfer went through, for orca billing's up/down transfer charge.
type TransferType string

const (
	TransferNone  TransferType = ""
	TransferS3    TransferType = "s3"
	TransferRedis TransferType = "redis"
)

// OrcaInfo extends Info with the orca variant's up/down transfer
// bookkeeping (spec.md §9).
type OrcaInfo struct {
	Info
	UpType   TransferType
	DownType TransferType
	UpTimeMS float64
	DownTimeMS float64
}

const (
	lambda1GBPerBig  = 0.00166667 // $ per GB per billed millisecond, scaled by 1e5
	s3UpCostBig      = 0.5
	s3DownCostBig    = 0.04
	redisUpCostBig   = 0.5666667
	redisDownCostBig = 0.5666667
)

// ExtractOrca parses a log line the same way Extract does and folds
// in the transfer metadata a caller already knows from its own
// upload/download bookkeeping (the orca log line alone does not carry
// up_type/down_type).
func ExtractOrca(log string, upType, downType TransferType, upTimeMS, downTimeMS float64) (OrcaInfo, error) {
	base, err := Extract(log)
	if err != nil {
		return OrcaInfo{}, err
	}
	info := OrcaInfo{
		Info:       base,
		UpType:     upType,
		DownType:   downType,
		UpTimeMS:   upTimeMS,
		DownTimeMS: downTimeMS,
	}
	info.Bill = CalculateOrcaBill(info)
	return info, nil
}

// CalculateOrcaBill bills compute as billed milliseconds times memory
// in GB times lambda1GBPerBig (CalculateBill's rate scaled by 1e5, with
// no per-request charge), plus a flat per-transfer charge
// when the upload/download actually happened (up_time/down_time > 0),
// keyed by which managed service carried it.
func CalculateOrcaBill(info OrcaInfo) float64 {
	bill := info.BilledDurationMS * (info.MemorySizeMB / 1024) * lambda1GBPerBig

	upUsed := info.UpTimeMS != 0
	downUsed := info.DownTimeMS != 0

	switch info.UpType {
	case TransferS3:
		if upUsed {
			bill += s3UpCostBig
		}
	case TransferRedis:
		if upUsed {
			bill += redisUpCostBig
		}
	}

	switch info.DownType {
	case TransferS3:
		if downUsed {
			bill += s3DownCostBig
		}
	case TransferRedis:
		if downUsed {
			bill += redisDownCostBig
		}
	}

	return bill
}
