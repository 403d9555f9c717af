package models

import "errors"

// Input errors
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("could not extract any text from the document")
)

// Stage errors
var (
	ErrExtractionFailed      = errors.New("text extraction failed")
	ErrModelInvocationFailed = errors.New("model invocation failed")
	ErrMalformedModelOutput  = errors.New("malformed model output")
)

// Task registry errors
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrDuplicateTask     = errors.New("task already exists")
	ErrInvalidTransition = errors.New("task is not processing")
	ErrTaskNotReady      = errors.New("task is not completed")
)

// ErrInconsistentTask marks a completed task missing data it must carry
var ErrInconsistentTask = errors.New("task record is inconsistent")
