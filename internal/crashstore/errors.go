package crashstore

import "errors"

// Failure classes of the store. None of them ever reaches a caller of the
// public Store methods; they are only reported to the optional logger.
var (
	// ErrStorageUnavailable means the cache root could not be resolved.
	// Every persistence operation becomes a no-op.
	ErrStorageUnavailable = errors.New("crash storage unavailable: cache root cannot be resolved")

	ErrDirectoryCreateFailed = errors.New("crash directory could not be created")
	ErrWriteFailed           = errors.New("crash record could not be written")
	ErrReadFailed            = errors.New("crash record could not be read")
	ErrRecordMissing         = errors.New("crash record does not exist")
	ErrDeleteFailed          = errors.New("crash record could not be deleted")
)
