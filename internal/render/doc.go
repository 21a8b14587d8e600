// Package render turns a work item into the request sent to the remote
// generation service.
//
// Rendering is a collaborator of the task runner rather than part of it, so
// prompt layout and few-shot exemplar sampling can be swapped without touching
// the pipeline. Because exemplars are drawn at random, two renders of the same
// item may differ; identity is derived from the item content alone and is not
// affected.
package render
