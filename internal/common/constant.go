package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// inbound client requests.
const AuthorizationHeaderName = "Authorization"

// FileNameParam is the request parameter carrying the generated internal
// file name, both on the client surface and on requests forwarded to
// workers.
const FileNameParam = "name"
