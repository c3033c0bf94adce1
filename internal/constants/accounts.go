package constants

const (
	MaxNameLen   = 100
	CurrencyLen  = 3
	AmountPlaces = 2
)
