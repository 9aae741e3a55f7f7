package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	LoggerKey ContextKey = "logger"
)

// Validate is the shared validator instance. Register custom rules here once
// at init time; concurrent use is safe after that.
var Validate = validator.New()
