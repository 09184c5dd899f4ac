// Package identity supplies the signed-in user's email to the chat core.
//
// The backend keys every conversation by email, so the client needs one
// before it can list or create anything. Two providers exist:
//
//   - Static: a fixed email, usually from the config file
//   - IDToken: the "email" claim of an OpenID ID token, given inline or read
//     from a file that an external sign-in helper keeps fresh
//
// IDToken does not verify the token signature. The raw token is forwarded to
// the backend as a bearer token, which is where verification belongs.
package identity
