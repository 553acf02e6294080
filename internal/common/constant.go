package common

// AccessTokenHeaderName is the HTTP header carrying the bearer session token
// on authenticated requests.
const AccessTokenHeaderName = "Authorization"

// MaxUsernameLength bounds usernames at registration and login time.
const MaxUsernameLength = 30

// MaxPasswordLength bounds plaintext passwords accepted at login time.
const MaxPasswordLength = 128
