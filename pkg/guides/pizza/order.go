package pizza

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/toolguide/pkg/domain"
)

// Order is the data collected by the pizza guide.
type Order struct {
	Crust    string   `mapstructure:"crust"`
	Category string   `mapstructure:"category"`
	Toppings []string `mapstructure:"toppings"`
	Size     string   `mapstructure:"size"`
}

// Summary renders the bullet list shown for confirmation.
func (o Order) Summary() string {
	return fmt.Sprintf("• Size: %s\n• Crust: %s\n• Category: %s\n• Toppings: %s",
		o.Size, o.Crust, titleCase(o.Category), strings.Join(o.Toppings, ", "))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// View is the public form of an order session.
func View(s *domain.Session) map[string]any {
	var o Order
	_ = s.DecodeData(&o)
	return map[string]any{
		"session_id": s.ID,
		"state":      string(s.State),
		"crust":      orNil(o.Crust),
		"category":   orNil(o.Category),
		"toppings":   nonNilToppings(o.Toppings),
		"size":       orNil(o.Size),
		"created_at": s.CreatedAt.Format(time.RFC3339),
	}
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNilToppings(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}
