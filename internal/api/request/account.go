package request

type CreateAccount struct {
	FundType string `json:"fund_type" validate:"required"`
}

type DepositAccount struct {
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}
