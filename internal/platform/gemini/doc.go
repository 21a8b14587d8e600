// Package gemini provides an implementation of the generation.Executor interface
// that uses Google's Gemini API.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the pipeline to Google's external Gemini AI service without
// exposing the details of the external service to the core application.
//
// The executor performs exactly one GenerateContent call per request. It does
// not cache and does not retry: a failed call is classified as transient or
// permanent and returned, and the next pipeline run picks the item up again
// because nothing was cached for it.
package gemini
