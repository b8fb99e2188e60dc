package services

import (
	"errors"

	"walletpay/pkg/utils"
)

// withDefaultInfo fills in a gateway error that came back without a message.
func withDefaultInfo(err error, info string) error {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Info == "" {
		gwErr.Info = info
	}
	return err
}

func publicMessage(err error) string {
	var coded utils.CodedError
	if errors.As(err, &coded) && coded.PublicMessage() != "" {
		return coded.PublicMessage()
	}
	return "Internal server error"
}
