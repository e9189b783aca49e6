// Package httpclient builds the resty clients used for outbound calls.
package httpclient

// Response is what response inspection needs from an HTTP result. Both
// transport client responses and resty responses satisfy it.
type Response interface {
	StatusCode() int
	Body() []byte
}
