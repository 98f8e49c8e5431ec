package schemas

import (
	"regexp"

	"github.com/JonMunkholm/importme/internal/core"
)

var (
	zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{2,31}$`)
)

func init() {
	registerProducts()
}

func registerProducts() {
	core.Register(core.Schema{
		Key:   "products",
		Group: "Catalog",
		Label: "Products",
		Config: core.Config{
			HeaderRows:    1,
			SkipEmptyRows: true,
			AddRowIndex:   true,
			Columns: []core.Column{
				{Name: "sku", Index: 0, Required: true, Clean: core.String, Validators: []core.Validator{core.Match(skuPattern)}},
				{Name: "name", Index: 1, Required: true, Clean: core.String, Validators: []core.Validator{core.MinLength(2), core.MaxLength(200)}},
				{Name: "list_price", Index: 2, Required: true, Clean: core.Decimal, Validators: []core.Validator{core.Range(0, 1_000_000)}},
				{Name: "quantity", Index: 3, Default: int64(0), Clean: core.Int, Validators: []core.Validator{core.Range(0, 1_000_000_000)}},
				{Name: "active", Index: 4, Default: true, Clean: core.Bool},
				{Name: "category", Index: 5, Clean: core.String, Validators: []core.Validator{core.OneOf("hardware", "software", "service")}},
			},
			UniqueTogether: [][]string{{"sku"}},
		},
	})
}
