package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"coin-catalog/internal/api"
)

// describe 把数据流中的错误转换为用户可读的提示
func describe(err error, fallback string) string {
	var statusErr *api.StatusError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.StatusCode == http.StatusTooManyRequests {
			return "Rate limit reached, please retry in a moment"
		}
		return fmt.Sprintf("%s: market data service returned %d", fallback, statusErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return fallback + ": request timed out"
	case errors.Is(err, context.Canceled):
		return fallback + ": request cancelled"
	}
	return fallback
}
