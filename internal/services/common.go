package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// loggerFrom prefers the request logger carried by ctx over the fallback.
func loggerFrom(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return fallback
	}
	return l
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
