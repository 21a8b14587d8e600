// Package generation defines the boundary between the pipeline core and
// external AI/LLM completion services. An Executor performs exactly one
// remote call for a fully rendered Request and reports failures as typed
// ExecutionErrors; caching and retry policy live in the task package.
package generation
