package exchange

import (
	"net/http"
)

// SendRequest performs the exchange. One attempt, no retries; any failure
// comes back as a *TransportError.
func SendRequest(request *http.Request, options *Options) (*http.Response, error) {
	client, err := BuildHTTPClient(options)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(request)
	if err != nil {
		return nil, classifyTransportError(err, request.URL.String())
	}

	return resp, nil
}
