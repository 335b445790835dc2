package errprocess

import (
	"errors"
	"marketplace_chat_service/pkg/logger"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
