// Package checkout packages the cart into a WhatsApp order message. The
// handoff is fire and forget: the link is handed to the buyer, nothing is
// persisted and delivery is never confirmed.
package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrBadEmail     = errors.New("invalid email")
	ErrEmptyCart    = errors.New("cart empty")
)

var emailRe = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,}$`)

type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Name) == "" ||
		strings.TrimSpace(r.Email) == "" ||
		strings.TrimSpace(r.Address) == "" {
		return ErrMissingField
	}
	if !emailRe.MatchString(strings.TrimSpace(r.Email)) {
		return ErrBadEmail
	}
	return nil
}

// Order is the assembled handoff: the message text and the wa.me link that
// carries it.
type Order struct {
	Ref     string      `json:"ref"`
	Message string      `json:"message"`
	URL     string      `json:"url"`
	Totals  cart.Totals `json:"totals"`
}

// Build renders the order summary for a cart. Entries whose product is no
// longer in the catalog are skipped, exactly as the totals join skips them.
// A cart with no resolvable lines fails with ErrEmptyCart.
func Build(ref string, req Request, entries []cart.Entry, products []catalog.Product) (Order, error) {
	if err := req.Validate(); err != nil {
		return Order{}, err
	}

	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var b strings.Builder
	b.WriteString("*PEDIDO DE COMPRA*\n\n")
	fmt.Fprintf(&b, "*Cliente:* %s\n", strings.TrimSpace(req.Name))
	fmt.Fprintf(&b, "*Email:* %s\n", strings.TrimSpace(req.Email))
	fmt.Fprintf(&b, "*Dirección:* %s\n", strings.TrimSpace(req.Address))
	b.WriteString("\n*PRODUCTOS:*\n")

	lines := 0
	for _, e := range entries {
		p, ok := byID[e.ProductID]
		if !ok {
			continue
		}
		lines++
		fmt.Fprintf(&b, "• %s\n", p.Name)
		fmt.Fprintf(&b, "  Cantidad: %d x %s = %s\n",
			e.Qty, FormatCurrency(p.Price), FormatCurrency(p.Price*float64(e.Qty)))
	}
	if lines == 0 {
		return Order{}, ErrEmptyCart
	}

	totals := cart.CalculateTotals(entries, products)
	b.WriteString("\n*TOTALES:*\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatCurrency(totals.Subtotal))
	fmt.Fprintf(&b, "Impuestos (21%%): %s\n", FormatCurrency(totals.Tax))
	fmt.Fprintf(&b, "*TOTAL: %s*", FormatCurrency(totals.Total))

	return Order{
		Ref:     ref,
		Message: b.String(),
		Totals:  totals,
	}, nil
}

// Link builds the wa.me URL carrying the message.
func Link(phone, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(message))
}

// FormatCurrency renders ARS amounts the way the storefront displays them:
// "$ 1.234,56" with a dot thousands separator and comma decimals.
func FormatCurrency(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s$ %s,%s", sign, b.String(), frac)
}
