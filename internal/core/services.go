package core

// Services bundles the engine's service layer for injection into the API.
type Services struct {
	Subscription *SubscriptionService
	Account      *AccountService
	APIKey       *APIKeyService
}

func NewServices(db DB, l Ledger, clock Clock, cfg SubscriptionConfig) *Services {
	return &Services{
		Subscription: NewSubscriptionService(db, l, clock, cfg),
		Account:      NewAccountService(db, l),
		APIKey:       NewAPIKeyService(db),
	}
}
