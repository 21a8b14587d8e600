// Package openai provides an implementation of the generation.Executor
// interface for any service speaking the OpenAI chat completions protocol.
package openai
