// Package errors provides the structured error type used across interviewscribe.
//
// Every failure that crosses a package boundary is an *AppError. Its
// ErrorCode decides both the relay's HTTP status and whether a retry can
// help, so constructors only pick a code and a message.
// Storage failures are the exception: they surface as store.WriteResult values.
package errors
