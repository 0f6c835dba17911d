package storage

// FetchRecord represents one recorded download attempt.
type FetchRecord struct {
	URL         string
	TargetPath  string
	Status      string
	Bytes       int64
	CompletedAt string
}

const (
	StatusDownloaded = "downloaded"
	StatusFailed     = "failed"
)

type FetchReadRepository interface {
	GetFetches() ([]FetchRecord, error)
}

type FetchWriteRepository interface {
	TrackFetch(rec FetchRecord) error
}

type FetchRepository interface {
	FetchReadRepository
	FetchWriteRepository
}
