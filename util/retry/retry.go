package retry

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

var (
	DefaultRetry    = Retry{MinWait: 2, MaxWait: 32, MaxRetries: 8}
	ErrOutOfRetries = errors.New("tried too many times")
)

// Retry describes a randomized exponential backoff policy.
// Waits are expressed in seconds.
type Retry struct {
	MinWait    int // Min amount of time to sleep per iteration
	MaxWait    int // Max amount of time to sleep per iteration
	MaxRetries int // Number of times to retry
}

func (r Retry) Sleep(i int) {
	powerInt := func(x, y int) int {
		ret := 1
		for n := 0; n < y; n++ {
			ret *= x
		}
		return ret
	}

	capped := r.MinWait * powerInt(2, i)
	if capped > r.MaxWait {
		capped = r.MaxWait
	}
	if capped <= 0 {
		return
	}

	time.Sleep(time.Duration(rand.Intn(capped)+1) * time.Second)
}

// RetryRequest sends req until a non-429 response arrives or the policy is exhausted.
func RetryRequest(c *http.Client, req *http.Request) (*http.Response, error) {
	return RetryRequestWithRetry(c, req, DefaultRetry)
}

func RetryRequestWithRetry(c *http.Client, req *http.Request, r Retry) (*http.Response, error) {
	var resp *http.Response
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		resp, err = c.Do(req)
		if err != nil {
			return resp, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, err
		}

		r.Sleep(i)
	}
	return nil, ErrOutOfRetries
}

// RetryFunc runs f until it succeeds, shouldRetry returns false, or the policy
// is exhausted.
func RetryFunc(ctx context.Context, f func(ctx context.Context) error, shouldRetry func(error) bool, r Retry) error {
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		err = f(ctx)
		if err == nil {
			return nil
		}

		if !shouldRetry(err) {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.Sleep(i)
	}
	return ErrOutOfRetries
}
