// Package workflow implements the retrieve then generate chat pipeline.
//
// A run embeds the question, searches the vector index, formats the hits
// into a bounded context, and prompts a chat model together with a trailing
// window of the thread's conversation history. Failures in either step
// degrade to fixed answers so a run always completes. Completed turns are
// persisted whole to the thread repository.
//
// The package also provides ProactiveRetriever, a deadline-bounded lookup
// used to inject knowledge-base context into live conversations.
package workflow
