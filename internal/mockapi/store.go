package mockapi

import (
	"sort"
	"sync"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/errors"
	"github.com/jfcardenas/storefront-core/pkg/security"
)

type account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	RoleIDs      []int
}

type cartLine struct {
	ItemID    int64
	ProductID int64
	Quantity  int
}

// memory holds all server state. Everything lives in process, restarts
// reset it, which is the point of a development backend.
type memory struct {
	mu         sync.Mutex
	products   map[int64]api.Product
	accounts   map[string]*account
	carts      map[string]map[int64]*cartLine
	nextUserID int64
	nextItemID int64
}

func newMemory() *memory {
	return &memory{
		products:   seedProducts(),
		accounts:   map[string]*account{},
		carts:      map[string]map[int64]*cartLine{},
		nextUserID: 1,
		nextItemID: 1,
	}
}

func seedProducts() map[int64]api.Product {
	listing := []api.Product{
		{ID: 1, Name: "Laptop HP Pavilion", Description: "Portátil de 15 pulgadas con 16GB de RAM", CategoryName: "Tecnología", CategoryDescription: "Electrónica y computación", UnitPrice: 2100840, TaxRate: 19, TaxAmount: 399160, TotalPrice: 2500000, Stock: 15, Active: true},
		{ID: 2, Name: "iPhone 15 Pro", Description: "Smartphone con cámara de 48MP", CategoryName: "Tecnología", CategoryDescription: "Electrónica y computación", UnitPrice: 4033613, TaxRate: 19, TaxAmount: 766387, TotalPrice: 4800000, Stock: 8, Active: true},
		{ID: 3, Name: "Samsung Galaxy Watch", Description: "Reloj inteligente con monitor de salud", CategoryName: "Tecnología", CategoryDescription: "Electrónica y computación", UnitPrice: 1512605, TaxRate: 19, TaxAmount: 287395, TotalPrice: 1800000, Stock: 20, Active: true},
		{ID: 4, Name: "Auriculares Sony WH-1000XM5", Description: "Audífonos inalámbricos con cancelación de ruido", CategoryName: "Tecnología", CategoryDescription: "Electrónica y computación", UnitPrice: 1008403, TaxRate: 19, TaxAmount: 191597, TotalPrice: 1200000, Stock: 25, Active: true},
	}

	products := make(map[int64]api.Product, len(listing))
	for _, product := range listing {
		products[product.ID] = product
	}
	return products
}

func (m *memory) listProducts() []api.Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing := make([]api.Product, 0, len(m.products))
	for _, product := range m.products {
		listing = append(listing, product)
	}
	sort.Slice(listing, func(i, j int) bool { return listing[i].ID < listing[j].ID })
	return listing
}

func (m *memory) createAccount(username, email, password string, roleIDs []int) (*account, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "hash password")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Username == username {
			return nil, errors.New(errors.CodeConflict, "el nombre de usuario ya existe")
		}
		if existing.Email == email {
			return nil, errors.New(errors.CodeConflict, "el correo ya está registrado")
		}
	}

	acct := &account{
		ID:           m.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RoleIDs:      append([]int(nil), roleIDs...),
	}
	m.nextUserID++
	m.accounts[email] = acct
	return acct, nil
}

func (m *memory) authenticate(email, password string) (*account, error) {
	m.mu.Lock()
	acct, ok := m.accounts[email]
	m.mu.Unlock()

	if !ok {
		return nil, errors.New(errors.CodeUnauthorized, "credenciales inválidas")
	}
	match, err := security.VerifyPassword(password, acct.PasswordHash)
	if err != nil || !match {
		return nil, errors.New(errors.CodeUnauthorized, "credenciales inválidas")
	}
	return acct, nil
}

// addCartItem merges the quantity into an existing line for the product
// or opens a new line with a fresh item id.
func (m *memory) addCartItem(token string, productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[productID]; !ok {
		return errors.New(errors.CodeNotFound, "producto no encontrado")
	}

	cart, ok := m.carts[token]
	if !ok {
		cart = map[int64]*cartLine{}
		m.carts[token] = cart
	}

	if line, ok := cart[productID]; ok {
		line.Quantity += quantity
		return nil
	}
	cart[productID] = &cartLine{ItemID: m.nextItemID, ProductID: productID, Quantity: quantity}
	m.nextItemID++
	return nil
}

func (m *memory) updateCartItem(token string, productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	line, ok := m.carts[token][productID]
	if !ok {
		return errors.New(errors.CodeNotFound, "el producto no está en el carrito")
	}
	if quantity <= 0 {
		delete(m.carts[token], productID)
		return nil
	}
	line.Quantity = quantity
	return nil
}

func (m *memory) removeCartItem(token string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[token][productID]; !ok {
		return errors.New(errors.CodeNotFound, "el producto no está en el carrito")
	}
	delete(m.carts[token], productID)
	return nil
}

func (m *memory) cartSummary(token string) api.CartSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := api.CartSummary{Items: []api.CartLine{}}
	for _, line := range m.carts[token] {
		product := m.products[line.ProductID]
		summary.Items = append(summary.Items, api.CartLine{
			CartItemID: line.ItemID,
			Product:    product,
			Quantity:   line.Quantity,
		})
		summary.TotalItems += line.Quantity
		summary.TotalPrice += int64(line.Quantity) * product.TotalPrice
	}
	sort.Slice(summary.Items, func(i, j int) bool {
		return summary.Items[i].CartItemID < summary.Items[j].CartItemID
	})
	return summary
}

func (m *memory) clearCart(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, token)
}
