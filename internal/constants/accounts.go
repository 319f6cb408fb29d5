package constants

const (
	// MaxStoredAmount is the largest amount the ledger cache can hold.
	MaxStoredAmount = 1<<63 - 1
)

const (
	MaxNameLen = 100
	AppDirName = "dtl"
	DBFileName = "dtl.db"
)
