package clients

import "time"

const (
	INITIAL_BACKOFF = 1 * time.Second
	MAX_BACKOFF     = 32 * time.Second
	USER_AGENT      = "sentiscope-client/1.0 (+https://github.com/spacesedan/sentiscope)"

	// larger than any label set we serve, so every class comes back
	INFERENCE_TOP_K = 64
)
