// Package twilio is a minimal client for the Twilio Programmable Messaging REST API.
//
// It covers the two operations the delivery tracker needs:
//   - CreateMessage: submit an outbound SMS (POST /Accounts/{AccountSid}/Messages.json)
//   - FetchMessage: read the current state of a message (GET /Accounts/{AccountSid}/Messages/{Sid}.json)
//
// The client never retries. A message is submitted at most once per CreateMessage
// call, so callers can rely on the absence of duplicate sends.
//
// Error responses are decoded into *APIError, which exposes the Twilio error code
// and HTTP status so callers can distinguish credential failures from rejected
// phone numbers without parsing message text:
//
//	msg, err := client.CreateMessage(ctx, twilio.MessageParams{To: to, From: from, Body: body})
//	var apiErr *twilio.APIError
//	if errors.As(err, &apiErr) && apiErr.IsAuthentication() {
//	    // credentials rejected
//	}
package twilio
