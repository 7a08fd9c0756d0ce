package usecase

import "errors"

var (
	// ErrUsage indicates user input/usage errors (bad config, bad tree file).
	ErrUsage = errors.New("usage error")
	// ErrCritical indicates critical failures that should exit with error.
	ErrCritical = errors.New("critical error")
	// ErrLockBusy indicates an active run-lock held by another process.
	ErrLockBusy = errors.New("lock busy")
	// ErrInterrupted indicates a canceled or interrupted operation.
	ErrInterrupted = errors.New("interrupted")

	// ErrGuardDenied indicates the Guard (C7) rejected an action against
	// a LOCKED branch.
	ErrGuardDenied = errors.New("action denied by guard")
	// ErrScan indicates a branch root was unreadable during fingerprinting;
	// the branch is abandoned for this run but the process continues.
	ErrScan = errors.New("branch scan error")
	// ErrRemoteStage indicates the remote stager failed to mirror a leaf
	// (connection loss, partial transfer); fatal to the current run.
	ErrRemoteStage = errors.New("remote stage error")
	// ErrPipeline indicates the pack/compress/encrypt pipeline failed for
	// a leaf; fatal to the current run.
	ErrPipeline = errors.New("leaf pipeline error")
	// ErrUpload indicates the uploader failed to stream or verify a bag;
	// fatal to the current run.
	ErrUpload = errors.New("upload error")
	// ErrCatalogParse indicates the on-disk catalog is malformed; the
	// engine refuses to overwrite it.
	ErrCatalogParse = errors.New("catalog parse error")
	// ErrEncryptionConfig indicates ENCRYPT is requested by a branch but
	// the configured key material is missing or empty.
	ErrEncryptionConfig = errors.New("encryption configuration invalid")
	// ErrMinRetention indicates a DELETE was refused because the object
	// is younger than the configured minimum-retention window.
	ErrMinRetention = errors.New("object below minimum retention")
	// ErrUnverifiedUpload indicates a bag PUT succeeded but the
	// post-upload HeadObject verification failed or disagreed.
	ErrUnverifiedUpload = errors.New("upload could not be verified")
)
