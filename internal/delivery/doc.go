// Package delivery turns the asynchronous Twilio message lifecycle into a
// single synchronous answer.
//
// A Tracker validates the destination, submits the message exactly once and
// then re-reads its status at a fixed interval until the provider reports a
// terminal status or the attempt budget runs out:
//
//	Validating -> Submitting -> Polling -> Terminal
//
// Every terminal Result carries a text starting with "[FINAL]" that tells the
// caller not to resend. Submission failures are returned as typed errors
// (ValidationError, ProviderAuthError, ProviderRejectionError, SubmissionError)
// and never lead to a second submission.
//
// The Provider and Sleeper dependencies are interfaces so the state machine can
// be exercised without network access or real delays.
package delivery
