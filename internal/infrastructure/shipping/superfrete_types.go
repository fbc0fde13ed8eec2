package shipping

// sfParty is an address as the cart endpoint expects it
type sfParty struct {
	Name       string `json:"name"`
	Document   string `json:"document,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	StateAbbr  string `json:"state_abbr"`
	PostalCode string `json:"postal_code"`
}

// sfPackage is the parcel dimensions; the API wants kilograms and centimeters
type sfPackage struct {
	WeightKg float64 `json:"weight"`
	Height   int     `json:"height"`
	Width    int     `json:"width"`
	Length   int     `json:"length"`
}

// sfOptions are per-label options on the cart payload
type sfOptions struct {
	InsuranceValue float64 `json:"insurance_value"`
	NonCommercial  bool    `json:"non_commercial"`
}

// sfCartRequest is the POST /api/v0/cart payload
type sfCartRequest struct {
	Service int       `json:"service"`
	From    sfParty   `json:"from"`
	To      sfParty   `json:"to"`
	Package sfPackage `json:"package"`
	Options sfOptions `json:"options"`
	Tag     string    `json:"tag,omitempty"`
}

// sfOrderResponse is the label representation shared by the cart, info and
// cancel endpoints
type sfOrderResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Tracking string `json:"tracking"`
}

// sfCheckoutRequest purchases postage for the given labels
type sfCheckoutRequest struct {
	Orders []string `json:"orders"`
}

// sfPrintRequest asks for a print link for the given labels
type sfPrintRequest struct {
	Orders []string `json:"orders"`
}

// sfPrintResponse carries the print link
type sfPrintResponse struct {
	URL string `json:"url"`
}

// sfCancelRequest cancels a single label
type sfCancelRequest struct {
	Order sfCancelOrder `json:"order"`
}

type sfCancelOrder struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// sfErrorResponse is the error envelope the API returns on failures
type sfErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
