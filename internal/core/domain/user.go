package domain

type User struct {
	ID       uint64
	Login    string
	Password string
	// ShopID is nonzero for seller accounts.
	ShopID uint64
}
