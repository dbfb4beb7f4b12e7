package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by outbound object-store calls.
var HTTPClient = &http.Client{
	Timeout: 60 * time.Second,
}
