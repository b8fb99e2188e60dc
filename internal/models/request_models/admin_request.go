package request_models

type ListQuery struct {
	Page         int    `form:"page,default=1"`
	PageSize     int    `form:"pageSize,default=10"`
	Status       string `form:"status"`
	Currency     string `form:"currency"`
	BillingCycle string `form:"billing_cycle"`
}
