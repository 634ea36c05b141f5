// Command storefront is an interactive terminal client for the store
// backend. It keeps cart and session state locally, synchronizes the
// cart against the backend and survives restarts through a snapshot
// store.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/jfcardenas/storefront-core/internal/cart"
	"github.com/jfcardenas/storefront-core/internal/catalog"
	"github.com/jfcardenas/storefront-core/internal/checkout"
	"github.com/jfcardenas/storefront-core/internal/register"
	"github.com/jfcardenas/storefront-core/internal/session"
	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/config"
	"github.com/jfcardenas/storefront-core/pkg/currency"
	"github.com/jfcardenas/storefront-core/pkg/kvstore"
	"github.com/jfcardenas/storefront-core/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(context.Background(), cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	store, err := openStore(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	client, err := api.NewClient(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return fmt.Errorf("build api client: %w", err)
	}

	sessions, err := session.NewManager(ctx, session.ManagerParams{
		Store:  store,
		Client: client,
		Logger: logg,
		Config: cfg.Session,
	})
	if err != nil {
		return fmt.Errorf("build session manager: %w", err)
	}

	carts, err := cart.NewManager(ctx, cart.ManagerParams{
		Store:     store,
		Client:    client,
		Logger:    logg,
		TokenFunc: sessions.UserToken,
		Config:    cfg.Cart,
	})
	if err != nil {
		return fmt.Errorf("build cart manager: %w", err)
	}

	products, err := catalog.NewService(catalog.ServiceParams{
		Client:    client,
		Logger:    logg,
		TokenFunc: sessions.UserToken,
	})
	if err != nil {
		return fmt.Errorf("build catalog service: %w", err)
	}

	accounts, err := register.NewService(register.ServiceParams{
		Client: client,
		Logger: logg,
	})
	if err != nil {
		return fmt.Errorf("build register service: %w", err)
	}

	payments, err := checkout.NewService(checkout.ServiceParams{
		Client:    client,
		Cart:      carts,
		Logger:    logg,
		TokenFunc: sessions.UserToken,
	})
	if err != nil {
		return fmt.Errorf("build checkout service: %w", err)
	}

	go drainSyncErrors(ctx, carts, logg)

	app := &cli{
		sessions: sessions,
		carts:    carts,
		catalog:  products,
		register: accounts,
		checkout: payments,
		out:      os.Stdout,
	}
	return app.loop(ctx, bufio.NewScanner(os.Stdin))
}

func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (kvstore.Store, error) {
	if cfg.Store.UseRedis() {
		return kvstore.OpenRedis(ctx, cfg.Store)
	}
	return kvstore.OpenSQLite(ctx, cfg.Store.SQLitePath, logg)
}

// drainSyncErrors surfaces background cart sync failures without
// interrupting whatever the user is typing.
func drainSyncErrors(ctx context.Context, carts *cart.Manager, logg *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-carts.Errors():
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "aviso: la sincronización del carrito falló: %v\n", err)
			logg.Warn(ctx, "cart sync failure surfaced to user")
		}
	}
}

type cli struct {
	sessions *session.Manager
	carts    *cart.Manager
	catalog  *catalog.Service
	register *register.Service
	checkout *checkout.Service
	out      *os.File
}

func (c *cli) loop(ctx context.Context, in *bufio.Scanner) error {
	c.printf("Tienda lista. Escribe 'help' para ver los comandos.\n")
	c.prompt()

	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			c.prompt()
			continue
		}

		fields := strings.Fields(line)
		command, args := fields[0], fields[1:]
		if command == "quit" || command == "exit" {
			return nil
		}
		c.dispatch(ctx, command, args)
		c.prompt()
	}
	return in.Err()
}

func (c *cli) dispatch(ctx context.Context, command string, args []string) {
	switch command {
	case "help":
		c.printHelp()
	case "products":
		c.showProducts(ctx)
	case "add":
		c.addToCart(ctx, args)
	case "qty":
		c.updateQuantity(ctx, args)
	case "remove":
		c.removeFromCart(ctx, args)
	case "cart":
		c.showCart()
	case "clear":
		c.carts.ClearCart(ctx)
		c.printf("Carrito vaciado.\n")
	case "login":
		c.login(ctx, args)
	case "logout":
		c.sessions.LogoutUser(ctx)
		c.printf("Sesión cerrada.\n")
	case "admin":
		c.adminLogin(ctx, args)
	case "admin-logout":
		c.sessions.LogoutAdmin(ctx)
		c.printf("Sesión de administrador cerrada.\n")
	case "signup":
		c.signup(ctx, args)
	case "pay":
		c.pay(ctx, args)
	case "whoami":
		c.whoami()
	default:
		c.printf("Comando desconocido %q. Escribe 'help'.\n", command)
	}
}

func (c *cli) printHelp() {
	c.printf(`Comandos:
  products                        lista el catálogo
  add <id> <cantidad>             agrega un producto al carrito
  qty <id> <cantidad>             cambia la cantidad de un producto
  remove <id>                     quita un producto del carrito
  cart                            muestra el carrito
  clear                           vacía el carrito
  login <correo> <contraseña>     inicia sesión de cliente
  logout                          cierra la sesión de cliente
  admin <usuario> <contraseña>    inicia sesión de administrador
  admin-logout                    cierra la sesión de administrador
  signup <usuario> <correo> <contraseña>  crea una cuenta
  pay <tarjeta> <MM/AA> <cvv> <cuotas>    paga el carrito
  whoami                          muestra las sesiones activas
  quit                            sale
`)
}

func (c *cli) showProducts(ctx context.Context) {
	listing, err := c.catalog.Refresh(ctx)
	if err != nil {
		c.printf("No se pudo cargar el catálogo: %v\n", err)
		return
	}
	for _, product := range listing {
		c.printf("  [%d] %-35s %s (stock %d)\n", product.ID, product.Name, currency.Format(product.TotalPrice), product.Stock)
	}
}

func (c *cli) addToCart(ctx context.Context, args []string) {
	if len(args) < 1 {
		c.printf("Uso: add <id> [cantidad]\n")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		c.printf("Identificador inválido %q\n", args[0])
		return
	}
	quantity := 1
	if len(args) > 1 {
		if quantity, err = strconv.Atoi(args[1]); err != nil {
			c.printf("Cantidad inválida %q\n", args[1])
			return
		}
	}

	product, ok := c.catalog.ByID(id)
	if !ok {
		c.printf("Producto %d no encontrado. Ejecuta 'products' primero.\n", id)
		return
	}
	c.carts.AddItem(ctx, product, quantity)
	c.printf("Agregado: %s x%d\n", product.Name, quantity)
}

func (c *cli) updateQuantity(ctx context.Context, args []string) {
	if len(args) != 2 {
		c.printf("Uso: qty <id> <cantidad>\n")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		c.printf("Identificador inválido %q\n", args[0])
		return
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		c.printf("Cantidad inválida %q\n", args[1])
		return
	}
	c.carts.UpdateQuantity(ctx, id, quantity)
}

func (c *cli) removeFromCart(ctx context.Context, args []string) {
	if len(args) != 1 {
		c.printf("Uso: remove <id>\n")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		c.printf("Identificador inválido %q\n", args[0])
		return
	}
	c.carts.RemoveItem(ctx, id)
}

func (c *cli) showCart() {
	items := c.carts.Items().Get()
	if len(items) == 0 {
		c.printf("El carrito está vacío.\n")
		return
	}
	for _, item := range items {
		c.printf("  %-35s x%-3d %s\n", item.Product.Name, item.Quantity, currency.Format(int64(item.Quantity)*item.Product.TotalPrice))
	}
	c.printf("Total (%d artículos): %s\n", c.carts.TotalItems(), currency.Format(c.carts.TotalPrice()))
}

func (c *cli) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		c.printf("Uso: login <correo> <contraseña>\n")
		return
	}
	sess, err := c.sessions.LoginUser(ctx, args[0], args[1])
	if err != nil {
		c.printf("No se pudo iniciar sesión: %v\n", err)
		return
	}
	c.printf("Bienvenido, %s.\n", sess.DisplayName)
}

func (c *cli) adminLogin(ctx context.Context, args []string) {
	if len(args) != 2 {
		c.printf("Uso: admin <usuario> <contraseña>\n")
		return
	}
	ok, err := c.sessions.LoginAdmin(ctx, args[0], args[1])
	if err != nil {
		c.printf("Error al iniciar sesión: %v\n", err)
		return
	}
	if !ok {
		c.printf("Credenciales de administrador inválidas.\n")
		return
	}
	c.printf("Sesión de administrador iniciada.\n")
}

func (c *cli) signup(ctx context.Context, args []string) {
	if len(args) != 3 {
		c.printf("Uso: signup <usuario> <correo> <contraseña>\n")
		return
	}
	resp, err := c.register.Register(ctx, register.Input{
		Username:        args[0],
		Email:           args[1],
		Password:        args[2],
		ConfirmPassword: args[2],
	})
	if err != nil {
		c.printf("No se pudo crear la cuenta: %v\n", err)
		return
	}
	c.printf("%s\n", resp.Message)
}

func (c *cli) pay(ctx context.Context, args []string) {
	if len(args) != 4 {
		c.printf("Uso: pay <tarjeta> <MM/AA> <cvv> <cuotas>\n")
		return
	}
	installments, err := strconv.Atoi(args[3])
	if err != nil {
		c.printf("Número de cuotas inválido %q\n", args[3])
		return
	}

	paymentType := checkout.PaymentTypeCredit
	if installments == 0 {
		paymentType = checkout.PaymentTypeDebit
	}

	resp, err := c.checkout.Pay(ctx, checkout.CardInput{
		CardNumber:     args[0],
		CardHolderName: c.holderName(),
		ExpirationDate: args[1],
		CVV:            args[2],
		Installments:   installments,
		PaymentType:    paymentType,
	})
	if err != nil {
		c.printf("El pago fue rechazado: %v\n", err)
		return
	}
	c.printf("%s Referencia: %s\n", resp.Message, resp.ReferenceNumber)
}

func (c *cli) holderName() string {
	if sess := c.sessions.UserSession().Get(); sess != nil {
		return sess.DisplayName
	}
	return "Cliente"
}

func (c *cli) whoami() {
	if sess := c.sessions.UserSession().Get(); sess != nil {
		c.printf("Cliente: %s\n", sess.DisplayName)
	} else {
		c.printf("Cliente: sin sesión\n")
	}
	if sess := c.sessions.AdminSession().Get(); sess != nil {
		c.printf("Administrador: %s\n", sess.DisplayName)
	} else {
		c.printf("Administrador: sin sesión\n")
	}
}

func (c *cli) prompt() {
	c.printf("> ")
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
