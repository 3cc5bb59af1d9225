// Package gate provides the access control pipeline for document onboarding
// backends: token issuance and validation, single active sessions, login
// throttling, audit recording, and a role/status permission matrix.
//
// Sessions:
//   - Every issued token carries a session id. SessionStore keeps exactly one
//     active session id per identity, so a fresh login or role switch revokes
//     the previous token immediately. Redis-backed stores live in the
//     redisstore package; in-memory stores cover tests and development.
//
// Throttling:
//   - LoginThrottle tracks consecutive failures per identity and blocks the
//     account once the limit is reached. The block expires on its own; a
//     successful login inside the limit clears the counter. Store failures
//     deny the attempt rather than letting it through.
//
// Authorization:
//   - AuthorizationMatrix answers whether a role may perform an operation on
//     a document in a given status. Unknown combinations are denied. Elevated
//     roles and document ownership extend the rule table through CanModify.
//
// Requests:
//   - The middleware/gateware package guards protected routes. It extracts
//     and validates the token, checks the session is still the active one,
//     stores the claims in the request locals, and maps every failure to the
//     uniform failure envelope.
package gate
