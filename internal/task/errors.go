package task

import "errors"

// Common errors returned by the task package
var (
	ErrNilLogger   = errors.New("logger cannot be nil")
	ErrNilStore    = errors.New("cache store cannot be nil")
	ErrNilExecutor = errors.New("executor cannot be nil")
	ErrNilRenderer = errors.New("renderer cannot be nil")
	ErrNilRunner   = errors.New("runner cannot be nil")
)
