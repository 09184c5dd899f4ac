// Package backend is the HTTP client for the chat backend.
//
// # Overview
//
// The backend persists conversations and messages per user email. The client
// covers six operations:
//
//	GET    /get_user_conversations?email=<email>
//	POST   /create_conversation              (form: email)
//	GET    /get_conversation/<email>/<CONV#id>
//	DELETE /delete_conversation/<email>/<id>
//	POST   /upload                           (multipart: file, email, conv_id)
//	POST   /send_message                     (form: email, conv_id, content, is_bot)
//
// # Conversation ids
//
// Ids are displayed and loaded with the "CONV#" namespace prefix, but upload,
// send and delete carry the bare id. Callers always pass the prefixed id; the
// client strips it where the backend expects it stripped.
//
// # Errors
//
// Every failure is an *Error with a Kind:
//
//   - KindNetwork: the request could not complete
//   - KindHTTP: non-2xx status; IsNotFound reports a 404
//   - KindMalformed: the body does not match the expected shape
//
// The client never retries.
package backend
