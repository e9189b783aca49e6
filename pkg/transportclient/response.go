package transportclient

// Response is the outcome of a completed HTTP exchange, whatever its status code.
type Response struct {
	statusCode int
	body       []byte
}

func newResponse(statusCode int, body []byte) *Response {
	cp := make([]byte, len(body))
	copy(cp, body)
	return &Response{statusCode: statusCode, body: cp}
}

// StatusCode returns the HTTP status of the exchange.
func (r *Response) StatusCode() int { return r.statusCode }

// Body returns a copy of the raw response body.
func (r *Response) Body() []byte {
	cp := make([]byte, len(r.body))
	copy(cp, r.body)
	return cp
}

// String returns the raw body as text.
func (r *Response) String() string { return string(r.body) }
