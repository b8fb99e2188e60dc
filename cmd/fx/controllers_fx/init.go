package controllers_fx

import (
	"go.uber.org/fx"

	"walletpay/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAdminController),
	fx.Provide(controllers.NewHealthController))
