package api

// Product is the catalog snapshot carried into cart line items.
type Product struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	CategoryName        string  `json:"categoryName"`
	CategoryDescription string  `json:"categoryDescription"`
	UnitPrice           int64   `json:"unitPrice"`
	TaxRate             float64 `json:"taxRate"`
	TaxAmount           int64   `json:"taxAmount"`
	TotalPrice          int64   `json:"totalPrice"`
	ImageURL            string  `json:"imageUrl,omitempty"`
	Stock               int     `json:"stock"`
	Active              bool    `json:"active"`
}

// LoginRequest is the user login payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse mirrors the backend login envelope.
type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	ExpiresIn int64  `json:"expiresIn"`
}

// RegisterRequest is the payload for POST /api/v1/users/create.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleIDs  []int  `json:"roleIds"`
}

// RegisterResponse acknowledges a created account.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// CartLine is one authoritative cart row as returned by the summary endpoint.
type CartLine struct {
	CartItemID int64   `json:"cartItemId"`
	Product    Product `json:"product"`
	Quantity   int     `json:"quantity"`
}

// CartSummary is the server-side cart state fetched after each mutation.
type CartSummary struct {
	Items      []CartLine `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice int64      `json:"totalPrice"`
}

// AddCartItemRequest posts a product addition.
type AddCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// UpdateCartItemRequest replaces a line quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// PaymentRequest carries validated card data to the payment processor.
type PaymentRequest struct {
	CardNumber     string `json:"cardNumber"`
	CardHolderName string `json:"cardHolderName"`
	ExpirationDate string `json:"expirationDate"`
	CVV            string `json:"cvv"`
	Installments   int    `json:"installments"`
	PaymentType    string `json:"paymentType"`
	Amount         int64  `json:"amount"`
}

// PaymentResponse returns the processor reference for a settled payment.
type PaymentResponse struct {
	Message         string `json:"message"`
	ReferenceNumber string `json:"referenceNumber"`
}

type errorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
