// Package auth provides the credential gate for kachaka-mcp's HTTP transport.
//
// # Credentials
//
// A request may present one credential, looked up in this order:
//
//   - Authorization: Bearer <credential>
//   - X-API-Key: <credential>
//   - ?api_key=<credential>
//
// The credential is accepted when it is one of the configured API keys or a
// valid HS256 JWT signed with auth.jwt_secret. API keys may be stored as
// bcrypt hashes (see HashAPIKey); plain keys are compared in constant time.
//
// # Disabled Gate
//
// When auth.enabled is false, or when it is true but neither keys nor a JWT
// secret are configured, every request is admitted as "anonymous".
//
// # Stdio
//
// The stdio transport has no place to carry a credential and is not gated;
// access to the process is access to the robot.
package auth
