package webhook

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultRetries applies to webhooks without a retry policy
var DefaultRetries = types.RetriesPolicy{
	Policy:       types.RetryConstant,
	DelaySeconds: 2,
	Attempts:     15,
}

const maxBackoff = 10 * time.Minute

func retriesOf(hook types.WebhookConfig) types.RetriesPolicy {
	if hook.Retries == nil {
		return DefaultRetries
	}
	p := *hook.Retries
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.DelaySeconds < 0 {
		p.DelaySeconds = 0
	}
	return p
}

// Backoff returns the wait schedule of a retry policy. Unknown policies behave as constant.
func Backoff(policy types.RetriesPolicy) retryablehttp.Backoff {
	delay := time.Duration(policy.DelaySeconds) * time.Second

	return func(_, ceiling time.Duration, attempt int, _ *http.Response) time.Duration {
		if ceiling <= 0 {
			ceiling = maxBackoff
		}
		var wait time.Duration
		switch strings.ToLower(policy.Policy) {
		case types.RetryLinear:
			wait = delay * time.Duration(attempt+1)
		case types.RetryExponential:
			mult := math.Pow(2, float64(attempt))
			if float64(delay)*mult > float64(ceiling) {
				return ceiling
			}
			wait = time.Duration(float64(delay) * mult)
		default:
			wait = delay
		}
		if wait > ceiling {
			wait = ceiling
		}
		return wait
	}
}

// retryLogger adapts the session logger to retryablehttp
type retryLogger struct {
	s *zap.SugaredLogger
}

var _ retryablehttp.LeveledLogger = retryLogger{}

func newRetryLogger(log *logging.Logger) retryLogger {
	return retryLogger{s: log.Named("webhook").Sugar()}
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
