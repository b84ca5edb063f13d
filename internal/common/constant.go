package common

// BadgeHeaderName is the HTTP header used to carry the technician badge on
// outbound requests.
const BadgeHeaderName = "X-Badge"
