package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/proposal-engine/internal/interface/http/response"
	"github.com/ignatzorin/proposal-engine/internal/logger"
)

// RateLimitedKey выставляется мягким лимитером, когда лимит исчерпан.
const RateLimitedKey = "rateLimited"

// RateLimitMiddleware ограничивает запросы с одного IP. Каждый вызов
// создаёт свой счётчик, поэтому группы маршрутов не делят лимит.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	return rateLimit(limit, period, false)
}

// SoftRateLimitMiddleware считает запросы так же, но при превышении не отвечает 429,
// а помечает контекст ключом RateLimitedKey и пропускает запрос дальше.
func SoftRateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	return rateLimit(limit, period, true)
}

// IsRateLimited сообщает, что мягкий лимитер пометил запрос.
func IsRateLimited(c *gin.Context) bool {
	return c.GetBool(RateLimitedKey)
}

func rateLimit(limit int64, period time.Duration, soft bool) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: period,
		Limit:  limit,
	})

	return func(c *gin.Context) {
		lctx, err := instance.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			// хранилище лимитера в памяти, ошибка здесь не должна блокировать трафик
			logger.Log.WithError(err).Warn("Rate limiter недоступен")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached && soft {
			c.Set(RateLimitedKey, true)
			c.Next()
			return
		}
		if lctx.Reached {
			response.TooManyRequests(c, "слишком много запросов, попробуйте позже")
			return
		}

		c.Next()
	}
}
